package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storybuilder/internal/domain"
	"storybuilder/internal/providers/music"
)

type musicGenerateRequest struct {
	Prompt   string `json:"prompt"`
	LengthMS int    `json:"length_ms"`
	Refine   bool   `json:"refine"`
}

// MusicGenerate composes a background track for the active scene and saves
// it as the scene's music asset. When no prompt is supplied, a music brief
// is derived from the scene via the chat model.
func (a *App) MusicGenerate(w http.ResponseWriter, r *http.Request) {
	if a.Music == nil || !a.Music.HasCredentials() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "music generation not configured")
		return
	}
	var req musicGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	prompt := req.Prompt
	if prompt == "" {
		sc, err := a.Scenes.LoadScene(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.error(w, http.StatusBadRequest, "bad_request", "no prompt given and no scene saved")
				return
			}
			a.Log.Error().Err(err).Msg("scene load failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load scene")
			return
		}
		if a.Chat == nil || !a.Chat.Configured() {
			a.error(w, http.StatusBadRequest, "bad_request", "no prompt given and chat model not configured")
			return
		}
		prompt, err = a.Chat.MusicDirection(r.Context(), sc)
		if err != nil {
			a.Log.Error().Err(err).Msg("music direction failed")
			a.error(w, http.StatusBadGateway, "upstream", "music direction failed")
			return
		}
	}

	track, err := a.Music.Compose(r.Context(), music.ComposeRequest{
		Prompt:         prompt,
		Length:         time.Duration(req.LengthMS) * time.Millisecond,
		RefineBaseline: req.Refine,
	})
	if err != nil {
		a.Log.Error().Err(err).Msg("music compose failed")
		a.error(w, http.StatusBadGateway, "upstream", "music compose failed")
		return
	}

	path, err := a.Scenes.SaveMusic(r.Context(), track.Audio)
	if err != nil {
		a.Log.Error().Err(err).Msg("music save failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save music")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"path":      path,
		"mime_type": track.MimeType,
		"bytes":     len(track.Audio),
		"prompt":    prompt,
	})
}
