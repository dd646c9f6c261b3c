package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"storybuilder/internal/adapter/repo"
	"storybuilder/internal/bootstrap"
	"storybuilder/internal/domain"
	"storybuilder/internal/infra"
	"storybuilder/internal/media"
	"storybuilder/internal/pipeline"
)

const jobPollInterval = 2 * time.Second

type renderWorker struct {
	ctx     context.Context
	renders domain.RenderRepository
	runner  *pipeline.Runner
	logger  infra.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig(true)
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	renders := repo.NewRenderRepository(pool)
	if err := renders.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to ensure render schema")
	}

	services, err := bootstrap.Build(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to build services")
	}

	if !media.Available() {
		logger.Warn().Msg("worker: ffmpeg not found on PATH, runs will fail at assembly")
	}
	if !services.Video.HasCredentials() {
		logger.Warn().Msg("worker: no video api key, only the slides generator will work")
	}

	worker := &renderWorker{
		ctx:     ctx,
		renders: renders,
		runner:  services.Runner,
		logger:  logger,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *renderWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.renders.Claim(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				time.Sleep(jobPollInterval)
				continue
			}
			if w.ctx.Err() != nil {
				return w.ctx.Err()
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			time.Sleep(jobPollInterval)
			continue
		}

		w.handleJob(job)
	}
}

func (w *renderWorker) handleJob(job *domain.RenderJob) {
	w.logger.Info().Str("job_id", job.ID).Msg("worker: picked job")

	result, err := w.process(job)

	// The run context may already be canceled when a shutdown interrupted
	// the render; the status row must still move out of RUNNING or the job
	// would never be claimable again.
	statusCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err != nil {
		msg := err.Error()
		rawPath := ""
		if result != nil {
			// A mix-stage failure still leaves a valid raw video.
			rawPath = result.RawPath
		}
		if uerr := w.renders.UpdateStatus(statusCtx, job.ID, domain.RenderStatusFailed, &msg, rawPath, ""); uerr != nil {
			w.logger.Error().Err(uerr).Str("job_id", job.ID).Msg("worker: update status failed")
		}
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: job failed")
		return
	}

	if err := w.renders.UpdateStatus(statusCtx, job.ID, domain.RenderStatusSucceeded, nil, result.RawPath, result.OutputPath); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: update status failed")
		return
	}
	w.logger.Info().
		Str("job_id", job.ID).
		Int("segments", result.Segments).
		Bool("music_mixed", result.MusicMixed).
		Msg("worker: job complete")
}

func (w *renderWorker) process(job *domain.RenderJob) (*pipeline.Result, error) {
	var sc domain.Scene
	if err := json.Unmarshal(job.SceneJSON, &sc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	var opts domain.RenderOptions
	if err := json.Unmarshal(job.OptionsJSON, &opts); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return w.runner.Run(w.ctx, &sc, opts)
}
