package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"storybuilder/internal/http/handlers"
	"storybuilder/internal/middleware"
)

// Options tunes the router's cross-cutting behavior.
type Options struct {
	AllowedOrigins []string
	// GenerateLimit caps expensive generation endpoints per client IP per
	// minute. Zero disables the limiter.
	GenerateLimit int
}

// NewRouter assembles the API surface.
func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)
	r.Use(middleware.Logger(app.Log))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/scenes", func(r chi.Router) {
		r.Post("/structure", app.ScenesStructure)
		r.Get("/current", app.ScenesCurrent)
		r.Put("/current", app.ScenesReplace)
		r.Post("/assets", app.ScenesBuildAssets)
	})

	r.Post("/chat/reply", app.ChatReply)

	// Generation endpoints fan out to paid remote APIs; rate limit them
	// separately from the cheap read paths.
	r.Group(func(r chi.Router) {
		if opts.GenerateLimit > 0 {
			r.Use(middleware.RateLimit(opts.GenerateLimit, time.Minute))
		}
		r.Post("/music", app.MusicGenerate)
		r.Route("/renders", func(r chi.Router) {
			r.Post("/", app.RendersEnqueue)
			r.Post("/remix", app.RendersRemix)
		})
	})
	r.Get("/renders/{id}", app.RendersGet)
	r.Get("/artifacts", app.ArtifactsDownload)

	return r
}
