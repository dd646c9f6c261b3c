package sqlinline

const QInsertRenderJob = `--sql 6c1f0d2e-8a3b-4f91-b7c4-2d5e9a0f3b18
INSERT INTO render_jobs (id, scene_json, options_json, status)
VALUES ($1, $2, $3, 'QUEUED');
`

const QClaimRenderJob = `--sql 9e7a4c51-02bd-44e6-a8f3-c61d8b2e7f09
with next_job as (
    select id
    from render_jobs
    where status = 'QUEUED'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update render_jobs
    set status = 'RUNNING', updated_at = now()
    where id in (select id from next_job)
    returning id, scene_json, options_json, status, error_message, raw_path, output_path, created_at, updated_at
)
select * from updated;
`

const QUpdateRenderStatus = `--sql 3b8d6f20-55ce-47a1-9d12-e04a7c9b5d36
UPDATE render_jobs
SET status = $2,
    updated_at = NOW(),
    error_message = COALESCE($3, error_message),
    raw_path = COALESCE(NULLIF($4, ''), raw_path),
    output_path = COALESCE(NULLIF($5, ''), output_path)
WHERE id = $1;
`

const QGetRenderJob = `--sql d2f91a84-7b06-4c3d-8e55-1f6c0d4a2b97
SELECT id, scene_json, options_json, status, error_message, raw_path, output_path, created_at, updated_at
FROM render_jobs
WHERE id = $1;
`

const QCreateRenderJobsTable = `--sql 58c3e7b1-94ad-4f62-b0d8-6a2e5c1f8d43
CREATE TABLE IF NOT EXISTS render_jobs (
    id UUID PRIMARY KEY,
    scene_json JSONB NOT NULL,
    options_json JSONB NOT NULL,
    status TEXT NOT NULL DEFAULT 'QUEUED',
    error_message TEXT NOT NULL DEFAULT '',
    raw_path TEXT NOT NULL DEFAULT '',
    output_path TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_render_jobs_status_created
    ON render_jobs (status, created_at);
`
