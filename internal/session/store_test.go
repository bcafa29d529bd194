package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecorder struct {
	mu          sync.Mutex
	transitions []Transition
}

func (r *fakeRecorder) Record(_ context.Context, t Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
	return nil
}

func (r *fakeRecorder) all() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition(nil), r.transitions...)
}

func staticChecker(id *Identity, err error) Checker {
	return CheckerFunc(func(context.Context) (*Identity, error) { return id, err })
}

func TestZeroSnapshotIsUnknown(t *testing.T) {
	store := NewStore(staticChecker(nil, nil), nil, testLogger())
	snap := store.Snapshot()
	if snap.Session.State() != Unknown {
		t.Errorf("State = %v, want unknown", snap.Session.State())
	}
	if snap.Bootstrapping {
		t.Error("Bootstrapping should be false before CheckAuth")
	}
}

func TestCheckAuthPresent(t *testing.T) {
	rec := &fakeRecorder{}
	store := NewStore(staticChecker(&Identity{ID: "u1", FullName: "Ada"}, nil), rec, testLogger())

	snap := store.CheckAuth(context.Background())

	id, ok := snap.Session.Identity()
	if !ok || id.ID != "u1" {
		t.Fatalf("Identity() = %+v, %v; want u1", id, ok)
	}
	if snap.Bootstrapping {
		t.Error("Bootstrapping should be cleared after CheckAuth")
	}

	got := rec.all()
	if len(got) != 1 || got[0].From != Unknown || got[0].To != Present || got[0].UserID != "u1" {
		t.Errorf("transitions = %+v", got)
	}
}

func TestCheckAuthErrorResolvesAbsent(t *testing.T) {
	rec := &fakeRecorder{}
	store := NewStore(staticChecker(nil, errors.New("connection refused")), rec, testLogger())

	snap := store.CheckAuth(context.Background())

	if snap.Session.State() != Absent {
		t.Fatalf("State = %v, want absent", snap.Session.State())
	}
	got := rec.all()
	if len(got) != 1 || got[0].Reason != "check_failed" {
		t.Errorf("transitions = %+v", got)
	}
}

func TestCheckAuthNilIdentityResolvesAbsent(t *testing.T) {
	store := NewStore(staticChecker(nil, nil), nil, testLogger())
	if got := store.CheckAuth(context.Background()).Session.State(); got != Absent {
		t.Errorf("State = %v, want absent", got)
	}
}

func TestCheckAuthPublishesBootstrappingThenResolved(t *testing.T) {
	store := NewStore(staticChecker(&Identity{ID: "u1"}, nil), nil, testLogger())

	var seen []Snapshot
	store.Subscribe(func(s Snapshot) { seen = append(seen, s) })
	store.CheckAuth(context.Background())

	if len(seen) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(seen))
	}
	if !seen[0].Bootstrapping || seen[0].Session.State() != Unknown {
		t.Errorf("first snapshot = %+v, want bootstrapping+unknown", seen[0])
	}
	if seen[1].Bootstrapping || !seen[1].Session.IsPresent() {
		t.Errorf("second snapshot = %+v, want resolved present", seen[1])
	}
	if seen[1].Version <= seen[0].Version {
		t.Errorf("versions not increasing: %d then %d", seen[0].Version, seen[1].Version)
	}
}

func TestRecheckKeepsIdentityWhileBootstrapping(t *testing.T) {
	release := make(chan struct{})
	calls := 0
	checker := CheckerFunc(func(context.Context) (*Identity, error) {
		calls++
		if calls == 2 {
			<-release
		}
		return &Identity{ID: "u1"}, nil
	})
	store := NewStore(checker, nil, testLogger())
	store.CheckAuth(context.Background())

	during := make(chan Snapshot, 1)
	store.Subscribe(func(s Snapshot) {
		if s.Bootstrapping {
			select {
			case during <- s:
			default:
			}
		}
	})

	done := make(chan struct{})
	go func() {
		store.CheckAuth(context.Background())
		close(done)
	}()

	snap := <-during
	if !snap.Session.IsPresent() {
		t.Errorf("identity dropped during re-check: %+v", snap)
	}
	close(release)
	<-done
}

func TestCheckAuthAbandonedOnCancel(t *testing.T) {
	rec := &fakeRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	checker := CheckerFunc(func(ctx context.Context) (*Identity, error) {
		cancel()
		return nil, ctx.Err()
	})
	store := NewStore(checker, rec, testLogger())

	snap := store.CheckAuth(ctx)
	if snap.Session.State() != Unknown {
		t.Errorf("State = %v, want unknown after abandoned check", snap.Session.State())
	}
	if snap.Bootstrapping {
		t.Error("Bootstrapping should be cleared after abandoned check")
	}
	if len(rec.all()) != 0 {
		t.Errorf("abandoned check should not be recorded: %+v", rec.all())
	}
}

type slowKey struct{}

func TestOverlappingChecksApplyLatest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	checker := CheckerFunc(func(ctx context.Context) (*Identity, error) {
		if ctx.Value(slowKey{}) != nil {
			close(started)
			<-release
			return &Identity{ID: "stale"}, nil
		}
		return nil, errors.New("expired")
	})
	store := NewStore(checker, nil, testLogger())

	done := make(chan struct{})
	go func() {
		store.CheckAuth(context.WithValue(context.Background(), slowKey{}, true))
		close(done)
	}()
	<-started

	store.CheckAuth(context.Background())
	close(release)
	<-done

	if got := store.Snapshot().Session.State(); got != Absent {
		t.Errorf("State = %v, want absent from the latest check", got)
	}
}

func TestInvalidate(t *testing.T) {
	rec := &fakeRecorder{}
	store := NewStore(staticChecker(&Identity{ID: "u1"}, nil), rec, testLogger())
	ctx := context.Background()
	store.CheckAuth(ctx)
	store.SetOnlineUsers([]string{"u1", "u2"})

	store.Invalidate(ctx, "expired")

	snap := store.Snapshot()
	if snap.Session.State() != Absent {
		t.Fatalf("State = %v, want absent", snap.Session.State())
	}
	if snap.OnlineCount() != 0 {
		t.Errorf("roster should be cleared on sign-out, got %v", snap.OnlineUsers)
	}
	got := rec.all()
	last := got[len(got)-1]
	if last.From != Present || last.To != Absent || last.UserID != "u1" || last.Reason != "expired" {
		t.Errorf("last transition = %+v", last)
	}

	// A second invalidate is a no-op.
	before := store.Snapshot().Version
	store.Invalidate(ctx, "again")
	if store.Snapshot().Version != before {
		t.Error("Invalidate on absent session should not publish")
	}
}

func TestSetOnlineUsersRequiresPresentSession(t *testing.T) {
	store := NewStore(staticChecker(nil, nil), nil, testLogger())
	store.CheckAuth(context.Background())

	store.SetOnlineUsers([]string{"u1"})
	if n := store.Snapshot().OnlineCount(); n != 0 {
		t.Errorf("OnlineCount = %d, want 0 while absent", n)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := NewStore(staticChecker(&Identity{ID: "u1"}, nil), nil, testLogger())
	store.CheckAuth(context.Background())
	ids := []string{"u1", "u2"}
	store.SetOnlineUsers(ids)

	ids[0] = "mutated"
	snap := store.Snapshot()
	snap.OnlineUsers[1] = "mutated"

	again := store.Snapshot()
	if again.OnlineUsers[0] != "u1" || again.OnlineUsers[1] != "u2" {
		t.Errorf("roster leaked aliasing: %v", again.OnlineUsers)
	}
}

func TestUnsubscribe(t *testing.T) {
	store := NewStore(staticChecker(&Identity{ID: "u1"}, nil), nil, testLogger())
	calls := 0
	unsubscribe := store.Subscribe(func(Snapshot) { calls++ })
	unsubscribe()
	unsubscribe()

	store.CheckAuth(context.Background())
	if calls != 0 {
		t.Errorf("unsubscribed callback ran %d times", calls)
	}
}

func TestPresentSessionCopiesIdentity(t *testing.T) {
	id := &Identity{ID: "u1"}
	s := PresentSession(id)
	id.ID = "changed"

	got, _ := s.Identity()
	if got.ID != "u1" {
		t.Errorf("Identity().ID = %q, want u1", got.ID)
	}
	if PresentSession(nil).State() != Absent {
		t.Error("PresentSession(nil) should be absent")
	}
}
