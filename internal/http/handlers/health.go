package handlers

import (
	"net/http"
)

// Health reports liveness plus which optional capabilities are configured,
// so the frontend can hide features that would only 503.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	caps := map[string]bool{
		"chat":  a.Chat != nil && a.Chat.Configured(),
		"music": a.Music != nil && a.Music.HasCredentials(),
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"capabilities": caps,
	})
}
