package shell

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/chatshell/internal/db"
	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/session"
	"github.com/ziadkadry99/chatshell/internal/theme"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixedTheme string

func (f fixedTheme) Current(context.Context) string { return string(f) }

// gatedChecker blocks every check until release is closed, and counts calls.
type gatedChecker struct {
	calls   atomic.Int32
	release chan struct{}
	id      *session.Identity
}

func newGatedChecker(id *session.Identity) *gatedChecker {
	return &gatedChecker{release: make(chan struct{}), id: id}
}

func (g *gatedChecker) Check(ctx context.Context) (*session.Identity, error) {
	g.calls.Add(1)
	<-g.release
	return g.id, nil
}

func waitReady(t *testing.T, sh *Shell) {
	t.Helper()
	select {
	case <-sh.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("bootstrap did not finish")
	}
}

func present(id string) session.Snapshot {
	return session.Snapshot{Session: session.PresentSession(&session.Identity{ID: id})}
}

func TestLoading(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want bool
	}{
		{"unknown and checking", session.Snapshot{Bootstrapping: true}, true},
		{"unknown idle", session.Snapshot{}, true},
		{"absent idle", session.Snapshot{Session: session.AbsentSession()}, false},
		{"absent and checking", session.Snapshot{Session: session.AbsentSession(), Bootstrapping: true}, true},
		{"present and re-checking", session.Snapshot{Session: session.PresentSession(&session.Identity{ID: "u1"}), Bootstrapping: true}, false},
		{"present", present("u1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Loading(tt.snap); got != tt.want {
				t.Errorf("Loading = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComposeLoadingHidesRouteTree(t *testing.T) {
	f := Compose(routes.Default(), session.Snapshot{Bootstrapping: true}, "coffee", "/")
	if !f.Loading {
		t.Fatal("expected loading frame")
	}
	if f.Decision != (routes.Decision{}) {
		t.Errorf("loading frame carries a route decision: %+v", f.Decision)
	}
	if f.Presence != "" || f.Identity != nil {
		t.Errorf("loading frame leaks session data: %+v", f)
	}
	if f.Theme != "coffee" {
		t.Errorf("Theme = %q, want coffee", f.Theme)
	}
}

func TestComposePresentSession(t *testing.T) {
	table := routes.Default()
	snap := present("u1")
	snap.OnlineUsers = []string{"u1", "u2"}

	home := Compose(table, snap, "coffee", "/")
	if home.Decision.Kind != routes.Render || home.Decision.Screen != routes.ScreenHome {
		t.Errorf("/ decision = %+v, want render home", home.Decision)
	}
	if home.Presence != "2 people online" {
		t.Errorf("Presence = %q, want %q", home.Presence, "2 people online")
	}
	if home.Identity == nil || home.Identity.ID != "u1" {
		t.Errorf("Identity = %+v, want u1", home.Identity)
	}

	for _, path := range []string{"/login", "/signup"} {
		f := Compose(table, snap, "coffee", path)
		if f.Decision.Kind != routes.Redirect || f.Decision.Target != "/" {
			t.Errorf("%s decision = %+v, want redirect /", path, f.Decision)
		}
	}
}

func TestComposeAbsentSession(t *testing.T) {
	table := routes.Default()
	snap := session.Snapshot{Session: session.AbsentSession()}

	for _, path := range []string{"/", "/profile"} {
		f := Compose(table, snap, "coffee", path)
		if f.Decision.Kind != routes.Redirect || f.Decision.Target != "/login" {
			t.Errorf("%s decision = %+v, want redirect /login", path, f.Decision)
		}
	}
	login := Compose(table, snap, "coffee", "/login")
	if login.Decision.Kind != routes.Render || login.Decision.Screen != routes.ScreenLogin {
		t.Errorf("/login decision = %+v, want render login", login.Decision)
	}
	if login.Presence != "" {
		t.Errorf("presence shown to signed-out user: %q", login.Presence)
	}
}

func TestComposeSettingsIsPublic(t *testing.T) {
	for _, snap := range []session.Snapshot{{Session: session.AbsentSession()}, present("u1")} {
		f := Compose(routes.Default(), snap, "coffee", "/settings")
		if f.Decision.Kind != routes.Render || f.Decision.Screen != routes.ScreenSettings {
			t.Errorf("state %v: decision = %+v, want render settings", snap.Session.State(), f.Decision)
		}
	}
}

func TestComposeUnknownSessionIsLoading(t *testing.T) {
	for _, path := range []string{"/", "/login", "/signup", "/profile", "/settings"} {
		f := Compose(routes.Default(), session.Snapshot{}, "coffee", path)
		if !f.Loading || f.Decision != (routes.Decision{}) {
			t.Errorf("%s with unknown session = %+v, want loading only", path, f)
		}
	}
}

func TestFrameBeforeMountIsLoading(t *testing.T) {
	checker := newGatedChecker(&session.Identity{ID: "u1"})
	store := session.NewStore(checker, nil, testLogger())
	sh := New(store, fixedTheme("coffee"), nil, testLogger())

	for _, path := range []string{"/", "/signup"} {
		if f := sh.Frame(context.Background(), path); !f.Loading {
			t.Errorf("%s before mount = %+v, want loading", path, f.Decision)
		}
	}
	if n := checker.calls.Load(); n != 0 {
		t.Errorf("checker called %d times before mount", n)
	}
}

func TestAbandonedCheckStaysLoading(t *testing.T) {
	store := session.NewStore(session.CheckerFunc(func(ctx context.Context) (*session.Identity, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := store.CheckAuth(ctx)

	if snap.Session.State() != session.Unknown {
		t.Fatalf("state = %v, want unknown after an abandoned check", snap.Session.State())
	}
	if f := Compose(routes.Default(), snap, "coffee", "/"); !f.Loading {
		t.Errorf("frame after abandoned check = %+v, want loading", f.Decision)
	}
}

func TestComposePassesThemeThrough(t *testing.T) {
	f := Compose(routes.Default(), present("u1"), "legacy-blue", "/")
	if f.Theme != "legacy-blue" {
		t.Errorf("Theme = %q, want the stored value unchanged", f.Theme)
	}
}

func TestComposePresenceSingular(t *testing.T) {
	snap := present("u1")
	snap.OnlineUsers = []string{"u1"}
	if got := Compose(routes.Default(), snap, "coffee", "/").Presence; got != "1 person online" {
		t.Errorf("Presence = %q", got)
	}
}

func TestMountScenario(t *testing.T) {
	checker := newGatedChecker(&session.Identity{ID: "u1"})
	store := session.NewStore(checker, nil, testLogger())
	sh := New(store, fixedTheme("coffee"), nil, testLogger())

	var mu sync.Mutex
	var seen []session.Snapshot
	sh.OnChange(func(s session.Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	sh.Mount(context.Background())
	if f := sh.Frame(context.Background(), "/signup"); !f.Loading {
		t.Fatalf("frame right after mount = %+v, want loading", f.Decision)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !store.Snapshot().Bootstrapping {
		if time.Now().After(deadline) {
			t.Fatal("bootstrap never started")
		}
		time.Sleep(time.Millisecond)
	}
	if f := sh.Frame(context.Background(), "/"); !f.Loading {
		t.Fatalf("frame while checking = %+v, want loading", f)
	}
	if f := sh.Frame(context.Background(), "/settings"); !f.Loading {
		t.Error("loading view must replace every route while checking")
	}

	close(checker.release)
	waitReady(t, sh)
	store.SetOnlineUsers([]string{"u1", "u2"})

	f := sh.Frame(context.Background(), "/")
	if f.Loading || f.Decision.Kind != routes.Render || f.Presence != "2 people online" {
		t.Errorf("frame after sign-in = %+v", f)
	}
	if f := sh.Frame(context.Background(), "/login"); f.Decision.Kind != routes.Redirect || f.Decision.Target != "/" {
		t.Errorf("/login while present = %+v, want redirect /", f.Decision)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 3 {
		t.Fatalf("OnChange saw %d snapshots, want at least 3", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i].Version <= seen[i-1].Version {
			t.Errorf("snapshots out of order: %d after %d", seen[i].Version, seen[i-1].Version)
		}
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	checker := newGatedChecker(&session.Identity{ID: "u1"})
	close(checker.release)
	store := session.NewStore(checker, nil, testLogger())
	themes := theme.NewStore(database, "", testLogger())
	sh := New(store, themes, nil, testLogger())

	ctx := context.Background()
	var frames []Frame
	rerender := func() { frames = append(frames, sh.Frame(ctx, "/")) }
	sh.OnChange(func(session.Snapshot) {})
	themes.Watch(func(string) { rerender() })

	sh.Mount(ctx)
	sh.Mount(ctx)
	waitReady(t, sh)

	for _, id := range []string{"dracula", "retro", "coffee"} {
		if err := themes.Set(ctx, id); err != nil {
			t.Fatalf("Set(%q): %v", id, err)
		}
	}
	for range 3 {
		store.SetOnlineUsers([]string{"u1"})
		rerender()
	}
	sh.Unmount()
	sh.Mount(ctx)

	if n := checker.calls.Load(); n != 1 {
		t.Errorf("checker called %d times, want 1", n)
	}
	if len(frames) != 6 {
		t.Fatalf("rendered %d frames, want 6", len(frames))
	}
	if frames[0].Theme != "dracula" || frames[1].Theme != "retro" {
		t.Errorf("theme re-renders = %q, %q", frames[0].Theme, frames[1].Theme)
	}
}

func TestUnmountBeforeResolve(t *testing.T) {
	checker := newGatedChecker(&session.Identity{ID: "u1"})
	store := session.NewStore(checker, nil, testLogger())
	sh := New(store, fixedTheme("coffee"), nil, testLogger())

	var calls atomic.Int32
	sh.OnChange(func(session.Snapshot) { calls.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	sh.Mount(ctx)
	for checker.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	before := calls.Load()

	sh.Unmount()
	cancel()
	close(checker.release)
	waitReady(t, sh)

	if sh.Mounted() {
		t.Error("shell still mounted")
	}
	if got := calls.Load(); got != before {
		t.Errorf("OnChange ran %d times after Unmount", got-before)
	}
	if !store.Snapshot().Session.IsPresent() {
		t.Error("late bootstrap should still resolve the store")
	}
}

func TestRefreshWhilePresentIsSilent(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	checker := session.CheckerFunc(func(context.Context) (*session.Identity, error) {
		if calls.Add(1) > 1 {
			<-release
		}
		return &session.Identity{ID: "u1"}, nil
	})
	store := session.NewStore(checker, nil, testLogger())
	sh := New(store, fixedTheme("coffee"), nil, testLogger())

	loadingSeen := make(chan bool, 16)
	sh.OnChange(func(s session.Snapshot) {
		if s.Version > 2 {
			loadingSeen <- Loading(s)
		}
	})
	sh.Mount(context.Background())
	waitReady(t, sh)

	done := make(chan struct{})
	go func() {
		sh.Refresh(context.Background())
		close(done)
	}()
	if <-loadingSeen {
		t.Error("re-check of a signed-in session showed the loading view")
	}
	close(release)
	<-done
	if f := sh.Frame(context.Background(), "/"); f.Loading || f.Decision.Kind != routes.Render {
		t.Errorf("frame after refresh = %+v", f)
	}
}
