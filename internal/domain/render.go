package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// RenderStatus enumerates render job lifecycle states.
type RenderStatus string

const (
	RenderStatusQueued    RenderStatus = "QUEUED"
	RenderStatusRunning   RenderStatus = "RUNNING"
	RenderStatusSucceeded RenderStatus = "SUCCEEDED"
	RenderStatusFailed    RenderStatus = "FAILED"
)

// RenderJob tracks one queued video-assembly run. SceneJSON carries the
// scene snapshot as submitted; the worker never re-reads the live snapshot,
// so edits made after enqueue do not affect a running job.
type RenderJob struct {
	ID           string
	SceneJSON    json.RawMessage
	OptionsJSON  json.RawMessage
	Status       RenderStatus
	ErrorMessage string
	OutputPath   string
	RawPath      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RenderOptions is the single configuration bundle a run receives from the
// caller. It is not persisted across runs outside the job record itself.
type RenderOptions struct {
	Generator          string  `json:"generator" yaml:"generator"`
	ModelID            string  `json:"model_id" yaml:"model_id"`
	Width              int     `json:"width" yaml:"width"`
	Height             int     `json:"height" yaml:"height"`
	AttachMusic        bool    `json:"attach_music" yaml:"attach_music"`
	SanitizePrompts    bool    `json:"sanitize_prompts" yaml:"sanitize_prompts"`
	MusicVolume        float64 `json:"music_volume" yaml:"music_volume"`
	MusicDelaySeconds  float64 `json:"music_delay_seconds" yaml:"music_delay_seconds"`
	MusicOffsetSeconds float64 `json:"music_offset_seconds" yaml:"music_offset_seconds"`
}

// GeneratorSora is the remote video generation path; GeneratorSlides renders
// static beat cards locally and needs no provider credentials.
const (
	GeneratorSora   = "sora"
	GeneratorSlides = "slides"
)

// Normalize fills defaults for unset fields and returns the result.
func (o RenderOptions) Normalize() RenderOptions {
	if strings.TrimSpace(o.Generator) == "" {
		o.Generator = GeneratorSora
	}
	if strings.TrimSpace(o.ModelID) == "" {
		o.ModelID = "sora-2"
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 1280, 720
	}
	if o.MusicVolume <= 0 || o.MusicVolume > 1 {
		o.MusicVolume = 0.2
	}
	if o.MusicDelaySeconds < 0 {
		o.MusicDelaySeconds = 0
	}
	if o.MusicOffsetSeconds < 0 {
		o.MusicOffsetSeconds = 0
	}
	return o
}
