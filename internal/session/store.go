// Package session holds the client's process-wide session state: the
// tri-state identity, the bootstrap-in-progress flag and the presence
// roster. All three are published together as one Snapshot so readers never
// observe a half-applied update.
package session

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Transition describes a change of session state, for recording.
type Transition struct {
	From   State
	To     State
	UserID string
	Reason string
}

// Recorder persists session transitions. Failures are logged, never fatal.
type Recorder interface {
	Record(ctx context.Context, t Transition) error
}

// Store is the session store. Create one per process and inject it.
type Store struct {
	checker  Checker
	recorder Recorder
	logger   *slog.Logger

	mu       sync.Mutex
	snap     Snapshot
	checkSeq uint64
	subs     map[int]func(Snapshot)
	nextSub  int

	// notifyMu serializes subscriber delivery so versions arrive in order.
	notifyMu sync.Mutex
}

// NewStore creates a Store that resolves identities with checker.
// recorder may be nil.
func NewStore(checker Checker, recorder Recorder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		checker:  checker,
		recorder: recorder,
		logger:   logger,
		subs:     make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() Snapshot {
	snap := s.snap
	snap.OnlineUsers = slices.Clone(s.snap.OnlineUsers)
	return snap
}

// Subscribe registers fn for every published snapshot and returns a
// function that removes it. fn runs on the publishing goroutine and must
// not call Store mutators synchronously.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// CheckAuth resolves the session by asking the checker who the user is.
// Any checker error resolves to Absent. If ctx is cancelled before the
// checker answers the attempt is abandoned and the previous session kept.
// When checks overlap, only the most recently started one is applied.
func (s *Store) CheckAuth(ctx context.Context) Snapshot {
	s.mu.Lock()
	s.checkSeq++
	seq := s.checkSeq
	s.snap.Bootstrapping = true
	s.snap.Version++
	s.mu.Unlock()
	s.publish()

	id, err := s.checker.Check(ctx)

	s.mu.Lock()
	if seq != s.checkSeq {
		snap := s.copyLocked()
		s.mu.Unlock()
		s.logger.Debug("discarding superseded auth check")
		return snap
	}

	from := s.snap.Session.State()
	reason := "checked"
	switch {
	case ctx.Err() != nil:
		s.logger.Debug("auth check abandoned", "error", ctx.Err())
		reason = ""
	case err != nil:
		s.logger.Warn("auth check failed; continuing signed out", "error", err)
		s.setSessionLocked(AbsentSession())
		reason = "check_failed"
	case id == nil:
		s.setSessionLocked(AbsentSession())
	default:
		s.setSessionLocked(PresentSession(id))
	}
	s.snap.Bootstrapping = false
	s.snap.Version++
	snap := s.copyLocked()
	s.mu.Unlock()

	s.publish()
	if reason != "" {
		id, _ := snap.Session.Identity()
		s.record(ctx, from, snap.Session.State(), id.ID, reason)
	}
	return snap
}

// Invalidate signs the session out, e.g. on logout or expiry. It is a no-op
// unless the session is Present.
func (s *Store) Invalidate(ctx context.Context, reason string) {
	s.mu.Lock()
	if !s.snap.Session.IsPresent() {
		s.mu.Unlock()
		return
	}
	prev, _ := s.snap.Session.Identity()
	s.setSessionLocked(AbsentSession())
	s.snap.Version++
	snap := s.copyLocked()
	s.mu.Unlock()

	s.publish()
	s.record(ctx, Present, snap.Session.State(), prev.ID, reason)
}

// SetOnlineUsers replaces the presence roster. Updates arriving while no
// identity is present are dropped.
func (s *Store) SetOnlineUsers(ids []string) {
	s.mu.Lock()
	if !s.snap.Session.IsPresent() {
		s.mu.Unlock()
		return
	}
	s.snap.OnlineUsers = slices.Clone(ids)
	s.snap.Version++
	s.mu.Unlock()
	s.publish()
}

func (s *Store) setSessionLocked(next Session) {
	s.snap.Session = next
	if !next.IsPresent() {
		s.snap.OnlineUsers = nil
	}
}

func (s *Store) publish() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	snap := s.copyLocked()
	keys := slices.Sorted(maps.Keys(s.subs))
	subs := make([]func(Snapshot), 0, len(keys))
	for _, k := range keys {
		subs = append(subs, s.subs[k])
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *Store) record(ctx context.Context, from, to State, userID, reason string) {
	if s.recorder == nil || from == to {
		return
	}
	t := Transition{From: from, To: to, UserID: userID, Reason: reason}
	if err := s.recorder.Record(context.WithoutCancel(ctx), t); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("recording session transition", "from", from, "to", t.To, "error", err)
	}
}
