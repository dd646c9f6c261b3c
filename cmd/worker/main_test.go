package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"storybuilder/internal/domain"
)

type statusWrite struct {
	status domain.RenderStatus
	ctxErr error
}

type fakeRenderRepo struct {
	writes []statusWrite
}

func (f *fakeRenderRepo) Enqueue(ctx context.Context, job *domain.RenderJob) error { return nil }

func (f *fakeRenderRepo) Claim(ctx context.Context) (*domain.RenderJob, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeRenderRepo) UpdateStatus(ctx context.Context, jobID string, status domain.RenderStatus, errMsg *string, rawPath, outputPath string) error {
	f.writes = append(f.writes, statusWrite{status: status, ctxErr: ctx.Err()})
	return nil
}

func (f *fakeRenderRepo) GetByID(ctx context.Context, jobID string) (*domain.RenderJob, error) {
	return nil, domain.ErrNotFound
}

func TestHandleJobWritesStatusAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &fakeRenderRepo{}
	w := &renderWorker{
		ctx:     ctx,
		renders: repo,
		logger:  zerolog.Nop(),
	}

	w.handleJob(&domain.RenderJob{
		ID:          "job-1",
		SceneJSON:   []byte("not json"),
		OptionsJSON: []byte("{}"),
	})

	if len(repo.writes) != 1 {
		t.Fatalf("status writes = %d", len(repo.writes))
	}
	if repo.writes[0].status != domain.RenderStatusFailed {
		t.Fatalf("status = %s", repo.writes[0].status)
	}
	// The write must land on a live context even though the worker's own
	// context is already canceled, or the job stays RUNNING forever.
	if repo.writes[0].ctxErr != nil {
		t.Fatalf("status write context already dead: %v", repo.writes[0].ctxErr)
	}
}
