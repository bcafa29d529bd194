package session

import (
	"context"
	"time"
)

// State is the resolution state of the client's session.
type State int

const (
	// Unknown means bootstrap has not resolved yet.
	Unknown State = iota
	// Absent means bootstrap resolved with no authenticated identity.
	Absent
	// Present means bootstrap resolved to an authenticated identity.
	Present
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Identity is the authenticated user as reported by the backend.
type Identity struct {
	ID         string    `json:"_id"`
	FullName   string    `json:"fullName,omitempty"`
	Email      string    `json:"email,omitempty"`
	ProfilePic string    `json:"profilePic,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

// Session is the tri-state identity known to the client. The zero value is
// Unknown. An identity is carried only in the Present state.
type Session struct {
	state    State
	identity *Identity
}

// UnknownSession returns the unresolved session.
func UnknownSession() Session { return Session{} }

// AbsentSession returns a resolved session with no identity.
func AbsentSession() Session { return Session{state: Absent} }

// PresentSession returns a resolved session for id. A nil id yields Absent.
func PresentSession(id *Identity) Session {
	if id == nil {
		return AbsentSession()
	}
	cp := *id
	return Session{state: Present, identity: &cp}
}

// State returns the resolution state.
func (s Session) State() State { return s.state }

// Identity returns the identity when Present.
func (s Session) Identity() (Identity, bool) {
	if s.state != Present {
		return Identity{}, false
	}
	return *s.identity, true
}

// IsPresent reports whether an identity is known.
func (s Session) IsPresent() bool { return s.state == Present }

// Snapshot is an atomically published view of the session store.
type Snapshot struct {
	Session       Session
	Bootstrapping bool
	OnlineUsers   []string
	// Version increases by one on every publish.
	Version uint64
}

// OnlineCount is the size of the presence roster.
func (s Snapshot) OnlineCount() int { return len(s.OnlineUsers) }

// Checker resolves the current identity. Implementations return
// auth.ErrUnauthenticated, or any other error, when there is none; the
// store treats every error as "no session".
type Checker interface {
	Check(ctx context.Context) (*Identity, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) (*Identity, error)

// Check calls f(ctx).
func (f CheckerFunc) Check(ctx context.Context) (*Identity, error) { return f(ctx) }
