package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"storybuilder/internal/domain"
	"storybuilder/internal/media"
	"storybuilder/internal/prompt"
	"storybuilder/internal/providers/sora"
	"storybuilder/internal/scene"
)

// Generator abstracts the remote video backend so runs can be driven by a
// fake in tests.
type Generator interface {
	Generate(ctx context.Context, req sora.GenerateRequest) (*sora.Media, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// MediaProcessor is the local encode surface the pipeline needs.
type MediaProcessor interface {
	Probe(ctx context.Context, path string) (*media.Info, error)
	Letterbox(ctx context.Context, inPath, outPath string, width, height int) error
	ExtractLastFrame(ctx context.Context, videoPath, outPath string) error
	Concat(ctx context.Context, clips []string, outPath string, width, height int) error
	MixMusic(ctx context.Context, videoPath, musicPath, outPath string, p media.MixParams) error
	BeatCard(ctx context.Context, outPath string, width, height int, seconds float64, title, text string) error
}

var _ Generator = (*sora.Client)(nil)
var _ MediaProcessor = (*media.Runner)(nil)

// Runner drives one scene through segment generation, continuity seeding,
// assembly, and optional music mixing. Beats run strictly one at a time in
// ascending order because each beat's seed image is the previous beat's
// last frame.
type Runner struct {
	gen    Generator
	proc   MediaProcessor
	store  *scene.Store
	logger zerolog.Logger
}

// Result reports where a completed run left its artifacts.
type Result struct {
	RunID      string
	RawPath    string
	OutputPath string
	Segments   int
	MusicMixed bool
}

// NewRunner wires a runner from its collaborators.
func NewRunner(gen Generator, proc MediaProcessor, store *scene.Store, logger zerolog.Logger) *Runner {
	return &Runner{gen: gen, proc: proc, store: store, logger: logger}
}

// Run generates every beat of the scene, assembles the clips into the raw
// output, and mixes music when requested and available. On a mixing failure
// the returned Result still carries the valid raw output alongside the
// error.
func (r *Runner) Run(ctx context.Context, sc *domain.Scene, opts domain.RenderOptions) (*Result, error) {
	opts = opts.Normalize()
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	runID, runDir, err := r.store.NewRunDir()
	if err != nil {
		return nil, fmt.Errorf("run %s: scratch dir: %w", runID, err)
	}
	defer func() {
		// Best-effort cleanup; segment temp files never outlive the run.
		if err := r.store.CleanupRun(runID); err != nil {
			r.logger.Warn().Err(err).Str("run_id", runID).Msg("run cleanup failed")
		}
	}()

	seed := r.initialSeed(ctx, runDir, opts)
	visualRef := r.store.CompositeDescription(ctx)
	beats := sc.SortedBeats()
	clips := make([]string, 0, len(beats))
	orders := make([]int, 0, len(beats))
	expectedSeconds := 0

	for _, beat := range beats {
		expectedSeconds += QuantizeDuration(beat.TargetDuration())
	}

	for i, beat := range beats {
		// Cooperative cancellation between beats; an in-flight remote job
		// cannot be aborted, so this is the only stop point.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// The vision description covers the composite that seeds beat one;
		// later beats carry continuity through their frame seeds instead.
		ref := ""
		if i == 0 {
			ref = visualRef
		}
		clipPath := filepath.Join(runDir, fmt.Sprintf("segment_%02d.mp4", beat.Order))
		if err := r.renderBeat(ctx, sc, beat, opts, seed, ref, clipPath); err != nil {
			return nil, fmt.Errorf("beat %d: %w", beat.Order, err)
		}
		clips = append(clips, clipPath)
		orders = append(orders, beat.Order)
		r.logger.Info().Int("beat", beat.Order).Int("of", len(beats)).Msg("segment complete")

		if i < len(beats)-1 {
			seed = r.nextSeed(ctx, runDir, beat.Order, clipPath, seed, opts)
		}
	}

	rawPath, err := r.store.RawOutputPath()
	if err != nil {
		return nil, err
	}
	if err := r.assemble(ctx, clips, orders, rawPath, opts); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		RawPath:    rawPath,
		OutputPath: rawPath,
		Segments:   len(clips),
	}

	if !opts.AttachMusic {
		return result, nil
	}
	musicPath, ok := r.store.MusicPath()
	if !ok {
		r.logger.Warn().Msg("music attach requested but no track saved, skipping mix")
		return result, nil
	}
	outPath, err := r.store.OutputPath()
	if err != nil {
		return result, err
	}
	if err := r.mix(ctx, rawPath, musicPath, outPath, opts, float64(expectedSeconds)); err != nil {
		// The raw assembly stays valid; only the mix stage failed.
		return result, fmt.Errorf("mix stage: %w", err)
	}
	result.OutputPath = outPath
	result.MusicMixed = true
	return result, nil
}

// Remix re-mixes the existing raw output against the saved music track with
// new parameters, without touching the remote video API.
func (r *Runner) Remix(ctx context.Context, opts domain.RenderOptions) (string, error) {
	opts = opts.Normalize()
	if !r.store.HasRawOutput() {
		return "", fmt.Errorf("remix: no raw video from a previous run: %w", domain.ErrNotFound)
	}
	rawPath, err := r.store.RawOutputPath()
	if err != nil {
		return "", err
	}
	musicPath, ok := r.store.MusicPath()
	if !ok {
		return "", fmt.Errorf("remix: no music track saved: %w", domain.ErrAudioSource)
	}
	outPath, err := r.store.OutputPath()
	if err != nil {
		return "", err
	}
	if err := r.mix(ctx, rawPath, musicPath, outPath, opts, 0); err != nil {
		return "", err
	}
	return outPath, nil
}

func (r *Runner) renderBeat(ctx context.Context, sc *domain.Scene, beat domain.Beat, opts domain.RenderOptions, seed []byte, visualRef, clipPath string) error {
	seconds := QuantizeDuration(beat.TargetDuration())

	if opts.Generator == domain.GeneratorSlides {
		return r.proc.BeatCard(ctx, clipPath, opts.Width, opts.Height, float64(seconds), sc.Title, beat.Description)
	}

	text := prompt.BuildSegment(prompt.SegmentInput{
		Scene:           sc,
		Beats:           []domain.Beat{beat},
		VisualReference: visualRef,
		TargetSeconds:   seconds,
		Sanitize:        opts.SanitizePrompts,
	})
	result, err := r.gen.Generate(ctx, sora.GenerateRequest{
		Prompt:          text,
		DurationSeconds: seconds,
		Width:           opts.Width,
		Height:          opts.Height,
		Model:           opts.ModelID,
		ReferenceImage:  seed,
	})
	if err != nil {
		return err
	}

	var data []byte
	switch result.Kind {
	case sora.MediaInline:
		data = result.Data
	case sora.MediaRemoteURL:
		data, err = r.gen.Download(ctx, result.URL)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("segment result empty: %w", domain.ErrRemoteJobEmptyResult)
	}
	if err := os.WriteFile(clipPath, data, 0o644); err != nil {
		return fmt.Errorf("write segment: %w", err)
	}
	return nil
}

// initialSeed letterboxes the scene composite to the output resolution so
// the first segment starts from a size-matched reference. Any failure here
// degrades to running without a seed.
func (r *Runner) initialSeed(ctx context.Context, runDir string, opts domain.RenderOptions) []byte {
	srcPath, ok := r.store.CompositePath()
	if !ok {
		return nil
	}
	seedPath := filepath.Join(runDir, "seed.png")
	if err := r.proc.Letterbox(ctx, srcPath, seedPath, opts.Width, opts.Height); err != nil {
		r.logger.Warn().Err(err).Msg("seed letterbox failed, using composite as-is")
		seedPath = srcPath
	}
	data, err := os.ReadFile(seedPath)
	if err != nil {
		r.logger.Warn().Err(err).Msg("seed read failed, running without reference")
		return nil
	}
	return data
}

// nextSeed extracts the finished clip's last frame, letterboxed to the
// output resolution, as the next beat's reference. Provider clips can come
// back at a different size than requested, so the frame gets the same
// resolution treatment as the initial composite. Extraction failure falls
// back to the previous seed; continuity weakens but the run continues.
func (r *Runner) nextSeed(ctx context.Context, runDir string, order int, clipPath string, previous []byte, opts domain.RenderOptions) []byte {
	framePath := filepath.Join(runDir, fmt.Sprintf("frame_%02d.png", order))
	if err := r.proc.ExtractLastFrame(ctx, clipPath, framePath); err != nil {
		r.logger.Warn().Err(err).Int("beat", order).Msg("continuity frame extraction failed, keeping previous seed")
		return previous
	}
	seedPath := filepath.Join(runDir, fmt.Sprintf("seed_%02d.png", order))
	if err := r.proc.Letterbox(ctx, framePath, seedPath, opts.Width, opts.Height); err != nil {
		r.logger.Warn().Err(err).Int("beat", order).Msg("continuity frame letterbox failed, using frame as-is")
		seedPath = framePath
	}
	data, err := os.ReadFile(seedPath)
	if err != nil {
		r.logger.Warn().Err(err).Int("beat", order).Msg("continuity frame read failed, keeping previous seed")
		return previous
	}
	return data
}

func (r *Runner) assemble(ctx context.Context, clips []string, orders []int, rawPath string, opts domain.RenderOptions) error {
	for i, clip := range clips {
		if info, err := os.Stat(clip); err != nil || info.Size() == 0 {
			return fmt.Errorf("beat %d segment unreadable: %w", orders[i], domain.ErrSegmentRead)
		}
	}
	if err := r.proc.Concat(ctx, clips, rawPath, opts.Width, opts.Height); err != nil {
		return err
	}
	return nil
}

func (r *Runner) mix(ctx context.Context, rawPath, musicPath, outPath string, opts domain.RenderOptions, expectedSeconds float64) error {
	return r.proc.MixMusic(ctx, rawPath, musicPath, outPath, media.MixParams{
		Volume:                  opts.MusicVolume,
		StartDelaySeconds:       opts.MusicDelaySeconds,
		TrackOffsetSeconds:      opts.MusicOffsetSeconds,
		ExpectedDurationSeconds: expectedSeconds,
	})
}
