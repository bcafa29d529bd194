package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/session"
	"github.com/ziadkadry99/chatshell/internal/shell"
	"github.com/ziadkadry99/chatshell/internal/theme"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type navItem struct {
	Path   string
	Label  string
	Active bool
}

type pageData struct {
	Theme          string
	ThemeSupported bool
	Themes         []string
	Path           string
	Screen         string
	NotFound       bool
	Presence       string
	Identity       *session.Identity
	Nav            []navItem
}

func (w *Web) handlePage(rw http.ResponseWriter, r *http.Request) {
	f := w.shell.Frame(r.Context(), r.URL.Path)

	if f.Loading {
		rw.Header().Set("Cache-Control", "no-store")
		w.render(rw, http.StatusOK, "loading.html", pageData{Theme: f.Theme})
		return
	}

	switch f.Decision.Kind {
	case routes.Redirect:
		http.Redirect(rw, r, f.Decision.Target, http.StatusFound)
	case routes.NotFound:
		w.render(rw, http.StatusNotFound, "layout.html", w.pageFor(f))
	default:
		w.render(rw, http.StatusOK, "layout.html", w.pageFor(f))
	}
}

func (w *Web) pageFor(f shell.Frame) pageData {
	data := pageData{
		Theme:          f.Theme,
		ThemeSupported: theme.Valid(f.Theme),
		Themes:         theme.Themes,
		Path:           f.Decision.Path,
		Screen:         string(f.Decision.Screen),
		NotFound:       f.Decision.Kind == routes.NotFound,
		Presence:       f.Presence,
		Identity:       f.Identity,
	}
	for _, rt := range w.shell.Table().Routes() {
		data.Nav = append(data.Nav, navItem{
			Path:   rt.Path,
			Label:  string(rt.Screen),
			Active: rt.Path == f.Decision.Path,
		})
	}
	return data
}

func (w *Web) handleThemeForm(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(rw, "invalid form", http.StatusBadRequest)
		return
	}
	id := r.PostFormValue("theme")
	if err := w.themes.Set(r.Context(), id); err != nil {
		if errors.Is(err, theme.ErrUnknownTheme) {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		w.logger.Error("saving theme", "theme", id, "error", err)
		http.Error(rw, "could not save theme", http.StatusInternalServerError)
		return
	}
	http.Redirect(rw, r, "/settings", http.StatusSeeOther)
}

func (w *Web) render(rw http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		w.logger.Error("rendering page", "template", name, "error", err)
		http.Error(rw, "internal error", http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(status)
	rw.Write(buf.Bytes())
}
