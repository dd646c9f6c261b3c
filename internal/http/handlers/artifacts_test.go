package handlers

import (
	stdzip "archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storybuilder/internal/domain"
)

func TestArtifactsDownloadRequiresScene(t *testing.T) {
	app := newTestApp(t)
	rec := httptest.NewRecorder()
	app.ArtifactsDownload(rec, httptest.NewRequest(http.MethodGet, "/artifacts", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestArtifactsDownloadBundlesWhatExists(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	sc := &domain.Scene{
		Title: "Test",
		Beats: []domain.Beat{{Order: 1, Description: "opening", DurationSeconds: 4}},
	}
	if err := app.Scenes.SaveScene(ctx, sc); err != nil {
		t.Fatalf("save scene: %v", err)
	}
	if _, err := app.Scenes.SaveMusic(ctx, []byte("audio")); err != nil {
		t.Fatalf("save music: %v", err)
	}

	rec := httptest.NewRecorder()
	app.ArtifactsDownload(rec, httptest.NewRequest(http.MethodGet, "/artifacts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}

	zr, err := stdzip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["scene.json"] || !names["scene_music.mp3"] {
		t.Fatalf("archive entries = %v", names)
	}
	if names["generated_video.mp4"] {
		t.Fatalf("unrendered video should not be archived: %v", names)
	}
}
