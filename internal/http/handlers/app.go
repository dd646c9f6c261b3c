package handlers

import (
	"encoding/json"
	"net/http"

	"storybuilder/internal/domain"
	"storybuilder/internal/infra"
	"storybuilder/internal/pipeline"
	"storybuilder/internal/providers/chat"
	"storybuilder/internal/providers/music"
	"storybuilder/internal/scene"
)

// App carries the handlers' collaborators. Fields left nil disable the
// corresponding routes with a 503 rather than panicking.
type App struct {
	Log     infra.Logger
	Scenes  *scene.Store
	Chat    *chat.Client
	Music   *music.Client
	Assets  *pipeline.AssetBuilder
	Runner  *pipeline.Runner
	Renders domain.RenderRepository
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{
		"error":   slug,
		"message": message,
	})
}
