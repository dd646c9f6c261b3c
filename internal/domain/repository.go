package domain

import "context"

// RenderRepository persists render jobs for the API/worker hand-off.
type RenderRepository interface {
	Enqueue(ctx context.Context, job *RenderJob) error
	// Claim atomically picks the oldest queued job and marks it running.
	// Returns ErrNotFound when the queue is empty.
	Claim(ctx context.Context) (*RenderJob, error)
	UpdateStatus(ctx context.Context, jobID string, status RenderStatus, errMsg *string, rawPath, outputPath string) error
	GetByID(ctx context.Context, jobID string) (*RenderJob, error)
}
