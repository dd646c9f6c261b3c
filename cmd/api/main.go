package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"storybuilder/internal/adapter/repo"
	"storybuilder/internal/bootstrap"
	"storybuilder/internal/http/handlers"
	httpapi "storybuilder/internal/http/httpapi"
	"storybuilder/internal/infra"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig(true)
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	renders := repo.NewRenderRepository(dbpool)
	if err := renders.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure render schema")
	}

	services, err := bootstrap.Build(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}

	app := &handlers.App{
		Log:     logger,
		Scenes:  services.Scenes,
		Chat:    services.Chat,
		Music:   services.Music,
		Assets:  services.Assets,
		Runner:  services.Runner,
		Renders: renders,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins: splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GenerateLimit:  10,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
