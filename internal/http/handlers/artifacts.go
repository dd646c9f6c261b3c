package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storybuilder/internal/domain"
	"storybuilder/pkg/zip"
)

// ArtifactsDownload bundles everything the current workspace produced into
// one zip: the scene snapshot, composite, music, and the rendered videos.
// Artifacts that were never generated are simply absent from the archive.
func (a *App) ArtifactsDownload(w http.ResponseWriter, r *http.Request) {
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
	sceneJSON, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to encode scene")
		return
	}

	entries := []zip.Entry{{Name: "scene.json", Data: sceneJSON}}
	if p, ok := a.Scenes.CompositePath(); ok {
		entries = append(entries, zip.Entry{Name: "scene_composite.png", Path: p})
	}
	if p, ok := a.Scenes.MusicPath(); ok {
		entries = append(entries, zip.Entry{Name: "scene_music.mp3", Path: p})
	}
	if rawPath, err := a.Scenes.RawOutputPath(); err == nil {
		entries = append(entries, zip.Entry{Name: "generated_video_raw.mp4", Path: rawPath})
	}
	if outPath, err := a.Scenes.OutputPath(); err == nil {
		entries = append(entries, zip.Entry{Name: "generated_video.mp4", Path: outPath})
	}

	archive, err := zip.Archive(entries)
	if err != nil {
		a.Log.Error().Err(err).Msg("artifact archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="story_artifacts.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
