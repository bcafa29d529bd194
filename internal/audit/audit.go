// Package audit keeps a durable log of session transitions: sign-ins
// resolved by bootstrap, failed checks and sign-outs.
package audit

import (
	"time"

	"github.com/ziadkadry99/chatshell/internal/session"
)

// Event is a single recorded session transition.
type Event struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	UserID string    `json:"user_id,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// eventFrom converts a store transition into a row to insert.
func eventFrom(t session.Transition) Event {
	return Event{
		From:   t.From.String(),
		To:     t.To.String(),
		UserID: t.UserID,
		Reason: t.Reason,
	}
}
