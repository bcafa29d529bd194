// Package routes defines the client's screens and the access policy that
// decides, for a path and a session, whether to render or redirect.
package routes

import (
	"strings"

	"github.com/ziadkadry99/chatshell/internal/session"
)

// Policy restricts access to a route based on the session.
type Policy int

const (
	// Public routes render regardless of the session.
	Public Policy = iota
	// RequiresSession routes render only for a signed-in user.
	RequiresSession
	// RequiresNoSession routes render only for a signed-out user.
	RequiresNoSession
)

func (p Policy) String() string {
	switch p {
	case RequiresSession:
		return "requires_session"
	case RequiresNoSession:
		return "requires_no_session"
	default:
		return "public"
	}
}

// Screen names a page body. Rendering screens is left to the presentation.
type Screen string

const (
	ScreenHome     Screen = "home"
	ScreenSignup   Screen = "signup"
	ScreenLogin    Screen = "login"
	ScreenSettings Screen = "settings"
	ScreenProfile  Screen = "profile"
)

// Route binds a path to a screen under a policy.
type Route struct {
	Path   string
	Policy Policy
	Screen Screen
}

// Kind is the outcome of evaluating a route.
type Kind int

const (
	Render Kind = iota
	Redirect
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	default:
		return "render"
	}
}

// Decision is the result of Evaluate: render Screen, or redirect to Target.
type Decision struct {
	Kind   Kind
	Path   string
	Screen Screen
	Target string
}

// Table is an ordered, immutable set of routes.
type Table struct {
	routes []Route
	// EntryPath is where signed-out users are sent.
	EntryPath string
	// LandingPath is where signed-in users are sent.
	LandingPath string
}

// NewTable builds a table. The first route matching a path wins.
func NewTable(entry, landing string, routes ...Route) *Table {
	rs := make([]Route, len(routes))
	for i, r := range routes {
		r.Path = Normalize(r.Path)
		rs[i] = r
	}
	return &Table{routes: rs, EntryPath: Normalize(entry), LandingPath: Normalize(landing)}
}

// Default returns the chat client's route table.
func Default() *Table {
	return NewTable("/login", "/",
		Route{Path: "/", Policy: RequiresSession, Screen: ScreenHome},
		Route{Path: "/signup", Policy: RequiresNoSession, Screen: ScreenSignup},
		Route{Path: "/login", Policy: RequiresNoSession, Screen: ScreenLogin},
		Route{Path: "/settings", Policy: Public, Screen: ScreenSettings},
		Route{Path: "/profile", Policy: RequiresSession, Screen: ScreenProfile},
	)
}

// Routes returns a copy of the bindings in order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Lookup finds the route for path.
func (t *Table) Lookup(path string) (Route, bool) {
	path = Normalize(path)
	for _, r := range t.routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Evaluate decides what to show for path under s. It is pure: the same
// inputs always give the same decision. An unresolved session counts as
// signed out.
func (t *Table) Evaluate(path string, s session.Session) Decision {
	path = Normalize(path)
	r, ok := t.Lookup(path)
	if !ok {
		return Decision{Kind: NotFound, Path: path}
	}

	render := Decision{Kind: Render, Path: path, Screen: r.Screen}
	switch r.Policy {
	case RequiresSession:
		if s.IsPresent() {
			return render
		}
		return Decision{Kind: Redirect, Path: path, Target: t.EntryPath}
	case RequiresNoSession:
		if !s.IsPresent() {
			return render
		}
		return Decision{Kind: Redirect, Path: path, Target: t.LandingPath}
	default:
		return render
	}
}

// Normalize trims query, fragment and trailing slashes. Empty becomes "/".
func Normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(strings.TrimSpace(path), "/")
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
