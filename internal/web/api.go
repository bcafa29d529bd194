package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ziadkadry99/chatshell/internal/presence"
	"github.com/ziadkadry99/chatshell/internal/routes"
	"github.com/ziadkadry99/chatshell/internal/session"
	"github.com/ziadkadry99/chatshell/internal/shell"
	"github.com/ziadkadry99/chatshell/internal/theme"
)

type stateResponse struct {
	State         string            `json:"state"`
	Identity      *session.Identity `json:"identity,omitempty"`
	Bootstrapping bool              `json:"bootstrapping"`
	Loading       bool              `json:"loading"`
	OnlineCount   int               `json:"online_count"`
	Presence      string            `json:"presence,omitempty"`
	Theme         string            `json:"theme"`
	Version       uint64            `json:"version"`
}

type resolveResponse struct {
	Decision string `json:"decision"`
	Path     string `json:"path"`
	Screen   string `json:"screen,omitempty"`
	Target   string `json:"target,omitempty"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (w *Web) handleState(rw http.ResponseWriter, r *http.Request) {
	snap := w.shell.Snapshot()
	resp := stateResponse{
		State:         snap.Session.State().String(),
		Bootstrapping: snap.Bootstrapping,
		Loading:       shell.Loading(snap),
		OnlineCount:   snap.OnlineCount(),
		Theme:         w.themes.Current(r.Context()),
		Version:       snap.Version,
	}
	if id, ok := snap.Session.Identity(); ok {
		resp.Identity = &id
		resp.Presence = presence.Label(snap.OnlineCount())
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (w *Web) handleResolve(rw http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "path is required"})
		return
	}
	writeJSON(rw, http.StatusOK, resolveFor(w.shell.Frame(r.Context(), path), path))
}

func resolveFor(f shell.Frame, path string) resolveResponse {
	if f.Loading {
		return resolveResponse{Decision: "loading", Path: routes.Normalize(path)}
	}
	d := f.Decision
	return resolveResponse{
		Decision: d.Kind.String(),
		Path:     d.Path,
		Screen:   string(d.Screen),
		Target:   d.Target,
	}
}

func (w *Web) handleSetTheme(rw http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if err := w.themes.Set(r.Context(), req.Theme); err != nil {
		if errors.Is(err, theme.ErrUnknownTheme) {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		w.logger.Error("saving theme", "theme", req.Theme, "error", err)
		writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": "could not save theme"})
		return
	}
	writeJSON(rw, http.StatusOK, themeRequest{Theme: req.Theme})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
