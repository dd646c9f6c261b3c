package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storybuilder/internal/domain"
	"storybuilder/internal/sqlinline"
)

// RenderRepositoryPG implements domain.RenderRepository on PostgreSQL.
type RenderRepositoryPG struct {
	pool *pgxpool.Pool
}

var _ domain.RenderRepository = (*RenderRepositoryPG)(nil)

// NewRenderRepository creates a render job repository backed by PostgreSQL.
func NewRenderRepository(pool *pgxpool.Pool) *RenderRepositoryPG {
	return &RenderRepositoryPG{pool: pool}
}

// EnsureSchema creates the render_jobs table when it does not exist yet.
func (r *RenderRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, sqlinline.QCreateRenderJobsTable)
	return err
}

// Enqueue inserts a new queued render job.
func (r *RenderRepositoryPG) Enqueue(ctx context.Context, job *domain.RenderJob) error {
	_, err := r.pool.Exec(ctx, sqlinline.QInsertRenderJob,
		job.ID,
		job.SceneJSON,
		job.OptionsJSON,
	)
	return err
}

// Claim atomically takes the oldest queued job and marks it running. The
// claim uses FOR UPDATE SKIP LOCKED so multiple workers never pick the same
// job.
func (r *RenderRepositoryPG) Claim(ctx context.Context) (*domain.RenderJob, error) {
	row := r.pool.QueryRow(ctx, sqlinline.QClaimRenderJob)
	job, err := scanRenderJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// UpdateStatus moves a job through its lifecycle, optionally recording an
// error message and output paths.
func (r *RenderRepositoryPG) UpdateStatus(ctx context.Context, jobID string, status domain.RenderStatus, errMsg *string, rawPath, outputPath string) error {
	_, err := r.pool.Exec(ctx, sqlinline.QUpdateRenderStatus, jobID, status, errMsg, rawPath, outputPath)
	return err
}

// GetByID fetches a render job by its identifier.
func (r *RenderRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.RenderJob, error) {
	row := r.pool.QueryRow(ctx, sqlinline.QGetRenderJob, jobID)
	job, err := scanRenderJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

func scanRenderJob(row pgx.Row) (*domain.RenderJob, error) {
	var job domain.RenderJob
	if err := row.Scan(
		&job.ID,
		&job.SceneJSON,
		&job.OptionsJSON,
		&job.Status,
		&job.ErrorMessage,
		&job.RawPath,
		&job.OutputPath,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}
