package media

import (
	"context"
	"fmt"
	"os"

	"storybuilder/internal/domain"
)

// BeatCard renders a static title card for one beat: a dark canvas with the
// scene title and beat description. Used by the local slides generator,
// which needs no remote provider.
func (r *Runner) BeatCard(ctx context.Context, outPath string, width, height int, seconds float64, title, text string) error {
	drawTitle := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=%d:x=40:y=h*0.58",
		escapeDrawText(title), height/15,
	)
	drawBody := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=0xe6e6e6:fontsize=%d:x=40:y=h*0.70",
		escapeDrawText(text), height/22,
	)

	tmp := outPath + ".tmp.mp4"
	err := r.run(ctx,
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=0x12161c:s=%dx%d:d=%s:r=%d", width, height, formatSeconds(seconds), composeFPS),
		"-vf", drawTitle+","+drawBody,
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		tmp,
	)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("beat card: %w: %w", domain.ErrMediaEncode, err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("beat card: finalize: %w", err)
	}
	return nil
}
