package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"storybuilder/internal/domain"
)

type renderResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// RendersEnqueue snapshots the active scene together with the submitted
// options into a queued render job. The worker renders from the snapshot.
func (a *App) RendersEnqueue(w http.ResponseWriter, r *http.Request) {
	if a.Renders == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "render queue not configured")
		return
	}
	var opts domain.RenderOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	opts = opts.Normalize()

	sc, err := a.Scenes.LoadScene(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "bad_request", "no scene saved yet")
			return
		}
		a.Log.Error().Err(err).Msg("scene load failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load scene")
		return
	}

	sceneJSON, err := json.Marshal(sc)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode scene")
		return
	}
	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode options")
		return
	}

	job := &domain.RenderJob{
		ID:          uuid.NewString(),
		SceneJSON:   sceneJSON,
		OptionsJSON: optionsJSON,
		Status:      domain.RenderStatusQueued,
	}
	if err := a.Renders.Enqueue(r.Context(), job); err != nil {
		a.Log.Error().Err(err).Msg("render enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue render job")
		return
	}
	a.json(w, http.StatusAccepted, renderResponse{JobID: job.ID, Status: string(job.Status)})
}

// RendersGet reports a render job's status and outputs.
func (a *App) RendersGet(w http.ResponseWriter, r *http.Request) {
	if a.Renders == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "render queue not configured")
		return
	}
	id := chi.URLParam(r, "id")
	job, err := a.Renders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "unknown render job")
			return
		}
		a.Log.Error().Err(err).Msg("render lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load render job")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"job_id":        job.ID,
		"status":        job.Status,
		"error_message": job.ErrorMessage,
		"raw_path":      job.RawPath,
		"output_path":   job.OutputPath,
		"created_at":    job.CreatedAt,
		"updated_at":    job.UpdatedAt,
	})
}

// RendersRemix re-mixes the previous run's raw video with new music
// parameters synchronously; no remote generation is involved.
func (a *App) RendersRemix(w http.ResponseWriter, r *http.Request) {
	if a.Runner == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "pipeline not configured")
		return
	}
	var opts domain.RenderOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	outPath, err := a.Runner.Remix(r.Context(), opts)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusConflict, "no_raw_video", "no raw video from a previous run")
		case errors.Is(err, domain.ErrAudioSource):
			a.error(w, http.StatusConflict, "no_music", "no music track saved")
		default:
			a.Log.Error().Err(err).Msg("remix failed")
			a.error(w, http.StatusInternalServerError, "internal", "remix failed")
		}
		return
	}
	a.json(w, http.StatusOK, map[string]string{"output_path": outPath})
}
