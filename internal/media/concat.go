package media

import (
	"context"
	"fmt"
	"os"

	"storybuilder/internal/domain"
)

// Concat joins clips in the given order into one video on a width×height
// canvas. Inputs may differ in resolution and frame rate; each is scaled and
// padded onto its own canvas before concatenation. The output is written to
// a temporary file and renamed into place only on success, so a failed
// encode never leaves a partial file at outPath.
func (r *Runner) Concat(ctx context.Context, clips []string, outPath string, width, height int) error {
	if len(clips) == 0 {
		return fmt.Errorf("concat: no clips")
	}

	withAudio := true
	for _, clip := range clips {
		info, err := r.Probe(ctx, clip)
		if err != nil {
			return fmt.Errorf("concat: %w", err)
		}
		if !info.HasAudio {
			withAudio = false
		}
	}

	args := []string{"-y"}
	for _, clip := range clips {
		args = append(args, "-i", clip)
	}
	args = append(args,
		"-filter_complex", concatFilter(len(clips), width, height, withAudio),
		"-map", "[vout]",
	)
	if withAudio {
		args = append(args, "-map", "[aout]", "-c:a", "aac")
	}
	args = append(args, "-c:v", "libx264", "-pix_fmt", "yuv420p")

	tmp := outPath + ".tmp.mp4"
	args = append(args, tmp)

	if err := r.run(ctx, args...); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("concat: %w: %w", domain.ErrMediaEncode, err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("concat: finalize: %w", err)
	}
	return nil
}
