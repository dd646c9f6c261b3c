package media

import (
	"context"
	"fmt"
	"os"
)

// ExtractLastFrame writes the final displayable frame of a clip as a PNG.
// The seek lands one frame interval before the end, or at 0 for an empty
// clip.
func (r *Runner) ExtractLastFrame(ctx context.Context, videoPath, outPath string) error {
	info, err := r.Probe(ctx, videoPath)
	if err != nil {
		return err
	}
	ts := info.Duration - 1.0/composeFPS
	if ts < 0 {
		ts = 0
	}

	err = r.run(ctx,
		"-y",
		"-ss", formatSeconds(ts),
		"-i", videoPath,
		"-frames:v", "1",
		"-update", "1",
		outPath,
	)
	if err != nil {
		return err
	}

	stat, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("last frame missing: %w", err)
	}
	if stat.Size() == 0 {
		return fmt.Errorf("last frame empty: %s", outPath)
	}
	return nil
}

// Letterbox re-renders an image to exactly width×height, scaled to fit and
// centered on a black canvas, so reference images match the requested video
// resolution before submission.
func (r *Runner) Letterbox(ctx context.Context, inPath, outPath string, width, height int) error {
	return r.run(ctx,
		"-y",
		"-i", inPath,
		"-vf", letterboxFilter(width, height),
		"-frames:v", "1",
		"-update", "1",
		outPath,
	)
}
