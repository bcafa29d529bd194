package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/chatshell/internal/session"
)

// EventOnlineUsers is the socket event carrying the full roster.
const EventOnlineUsers = "getOnlineUsers"

// Message is one frame on the presence socket.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Sink receives roster updates. *session.Store implements it.
type Sink interface {
	SetOnlineUsers(ids []string)
}

// Feed connects to the presence socket as one user and forwards every
// roster it receives to the sink.
type Feed struct {
	url    string
	sink   Sink
	logger *slog.Logger
	dialer *websocket.Dialer

	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewFeed creates a feed for socketURL. Reconnect delays double from min up
// to max.
func NewFeed(socketURL string, sink Sink, minBackoff, maxBackoff time.Duration, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		url:        socketURL,
		sink:       sink,
		logger:     logger,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
	}
}

// Run keeps a connection open for userID until ctx is cancelled,
// reconnecting after failures. It returns ctx's error.
func (f *Feed) Run(ctx context.Context, userID string) error {
	backoff := f.minBackoff
	for {
		connected, err := f.connect(ctx, userID)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = f.minBackoff
		}
		f.logger.Warn("presence socket disconnected", "user", userID, "retry_in", backoff, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, f.maxBackoff)
	}
}

// connect runs one connection. connected reports whether the handshake
// succeeded, so the caller can reset its backoff.
func (f *Feed) connect(ctx context.Context, userID string) (connected bool, err error) {
	u, err := url.Parse(f.url)
	if err != nil {
		return false, fmt.Errorf("parsing socket url: %w", err)
	}
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()

	conn, resp, err := f.dialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dialing presence socket: %w (status %d)", err, resp.StatusCode)
		}
		return false, fmt.Errorf("dialing presence socket: %w", err)
	}
	defer conn.Close()
	f.logger.Debug("presence socket connected", "user", userID)

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, errors.New("closed by server")
			}
			return true, fmt.Errorf("reading presence socket: %w", err)
		}
		f.handle(ctx, msg)
	}
}

// handle forwards a roster. A roster read after ctx is done belongs to a
// connection the follower has already dropped, so it is discarded.
func (f *Feed) handle(ctx context.Context, msg Message) {
	if msg.Event != EventOnlineUsers {
		return
	}
	var ids []string
	if err := json.Unmarshal(msg.Data, &ids); err != nil {
		f.logger.Warn("ignoring malformed roster", "error", err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	f.sink.SetOnlineUsers(ids)
}

// Follower runs the feed while the session is Present and stops it when
// the user signs out. Register Observe with the session store.
type Follower struct {
	feed *Feed
	base context.Context

	mu      sync.Mutex
	userID  string
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewFollower creates a follower whose connections live at most as long
// as ctx.
func NewFollower(ctx context.Context, feed *Feed) *Follower {
	return &Follower{feed: feed, base: ctx}
}

// Observe reacts to a published snapshot. It never blocks.
func (fl *Follower) Observe(snap session.Snapshot) {
	id, present := snap.Session.Identity()

	fl.mu.Lock()
	defer fl.mu.Unlock()

	if present && id.ID == fl.userID && fl.cancel != nil {
		return
	}
	if fl.cancel != nil {
		fl.cancel()
		fl.cancel = nil
		fl.userID = ""
	}
	if !present || fl.stopped || fl.base.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(fl.base)
	fl.cancel = cancel
	fl.userID = id.ID
	fl.wg.Add(1)
	go func() {
		defer fl.wg.Done()
		fl.feed.Run(ctx, id.ID)
	}()
}

// Active returns the user the feed is connected as, if any.
func (fl *Follower) Active() (string, bool) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.userID, fl.cancel != nil
}

// Stop cancels any running feed and waits for it to exit. Later
// snapshots are ignored.
func (fl *Follower) Stop() {
	fl.mu.Lock()
	fl.stopped = true
	if fl.cancel != nil {
		fl.cancel()
		fl.cancel = nil
		fl.userID = ""
	}
	fl.mu.Unlock()
	fl.wg.Wait()
}
