package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"storybuilder/internal/domain"
	"storybuilder/internal/providers/chat"
	"storybuilder/internal/scene"
)

type structureRequest struct {
	ScriptText string `json:"script_text"`
}

// ScenesStructure turns freeform script text into the structured scene
// snapshot, replacing any previous scene wholesale. Without a configured
// chat model it falls back to a heuristic structure.
func (a *App) ScenesStructure(w http.ResponseWriter, r *http.Request) {
	var req structureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.ScriptText == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "script_text is required")
		return
	}

	var (
		sc  *domain.Scene
		err error
	)
	if a.Chat != nil && a.Chat.Configured() {
		sc, err = a.Chat.StructureScene(r.Context(), req.ScriptText)
		if err != nil {
			a.Log.Error().Err(err).Msg("scene structuring failed")
			a.error(w, http.StatusBadGateway, "upstream", "scene structuring failed")
			return
		}
	} else {
		sc = scene.FallbackStructure(req.ScriptText)
	}

	if err := a.Scenes.SaveScene(r.Context(), sc); err != nil {
		a.Log.Error().Err(err).Msg("scene save failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save scene")
		return
	}
	a.json(w, http.StatusOK, sc)
}

// ScenesCurrent returns the active scene snapshot.
func (a *App) ScenesCurrent(w http.ResponseWriter, r *http.Request) {
	sc, err := a.Scenes.LoadScene(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no scene saved yet")
			return
		}
		a.Log.Error().Err(err).Msg("scene load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load scene")
		return
	}
	a.json(w, http.StatusOK, sc)
}

// ScenesReplace accepts a manually edited scene and stores it as the new
// snapshot after validation.
func (a *App) ScenesReplace(w http.ResponseWriter, r *http.Request) {
	var sc domain.Scene
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Scenes.SaveScene(r.Context(), &sc); err != nil {
		if errors.Is(err, domain.ErrNoBeats) {
			a.error(w, http.StatusUnprocessableEntity, "invalid_scene", err.Error())
			return
		}
		a.Log.Error().Err(err).Msg("scene save failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save scene")
		return
	}
	a.json(w, http.StatusOK, &sc)
}

// ScenesBuildAssets generates the character portraits and the composite
// seed image for the active scene.
func (a *App) ScenesBuildAssets(w http.ResponseWriter, r *http.Request) {
	if a.Assets == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "image generation not configured")
		return
	}
	sc, err := a.Scenes.LoadScene(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no scene saved yet")
			return
		}
		a.Log.Error().Err(err).Msg("scene load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load scene")
		return
	}

	if err := a.Assets.BuildPortraits(r.Context(), sc); err != nil {
		a.Log.Error().Err(err).Msg("portrait generation failed")
		a.error(w, http.StatusBadGateway, "upstream", "portrait generation failed")
		return
	}
	compositePath, err := a.Assets.BuildComposite(r.Context(), sc)
	if err != nil {
		a.Log.Error().Err(err).Msg("composite generation failed")
		a.error(w, http.StatusBadGateway, "upstream", "composite generation failed")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"composite_path": compositePath,
		"characters":     len(sc.Characters),
	})
}

type chatReplyRequest struct {
	History []chat.Message `json:"history"`
}

// ChatReply continues a scripting conversation with the assistant.
func (a *App) ChatReply(w http.ResponseWriter, r *http.Request) {
	if a.Chat == nil || !a.Chat.Configured() {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "chat model not configured")
		return
	}
	var req chatReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	reply, err := a.Chat.Reply(r.Context(), req.History)
	if err != nil {
		a.Log.Error().Err(err).Msg("chat reply failed")
		a.error(w, http.StatusBadGateway, "upstream", "chat reply failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"reply": reply})
}
