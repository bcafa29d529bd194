package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/chatshell/internal/presence"
	"github.com/ziadkadry99/chatshell/internal/session"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// presenceMessage is the outgoing frame on /ws/presence. Label is empty
// while nobody is signed in.
type presenceMessage struct {
	Type    string `json:"type"`
	Present bool   `json:"present"`
	Count   int    `json:"count"`
	Label   string `json:"label,omitempty"`
	Version uint64 `json:"version"`
}

func presenceFor(snap session.Snapshot) presenceMessage {
	msg := presenceMessage{Type: "presence", Version: snap.Version}
	if snap.Session.IsPresent() {
		msg.Present = true
		msg.Count = snap.OnlineCount()
		msg.Label = presence.Label(msg.Count)
	}
	return msg
}

func (w *Web) handlePresenceSocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn("presence socket upgrade", "error", err)
		return
	}
	defer conn.Close()

	updates := w.addClient()
	defer w.removeClient(updates)

	// The reader only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					w.logger.Debug("presence socket read", "error", err)
				}
				return
			}
		}
	}()

	last := presenceFor(w.shell.Snapshot())
	if !w.send(conn, last) {
		return
	}
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case msg := <-updates:
			if msg.Version <= last.Version {
				continue
			}
			last = msg
			if !w.send(conn, msg) {
				return
			}
		}
	}
}

func (w *Web) send(conn *websocket.Conn, msg presenceMessage) bool {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		w.logger.Debug("presence socket write", "error", err)
		return false
	}
	return true
}
