package media

import (
	"context"
	"fmt"
	"os"

	"storybuilder/internal/domain"
)

// MixParams controls how a music track is laid under a video.
type MixParams struct {
	// Volume scales the music gain, 0..1.
	Volume float64
	// StartDelaySeconds of silence before the music begins.
	StartDelaySeconds float64
	// TrackOffsetSeconds skipped from the start of the music file.
	TrackOffsetSeconds float64
	// ExpectedDurationSeconds, when longer than the video itself, extends
	// the output to this length by cloning the final frame.
	ExpectedDurationSeconds float64
}

// MixMusic overlays a music track onto a video. The music is looped (never
// resampled) to fill the full target duration and truncated exactly; if the
// video carries its own audio the two are composited, otherwise the music
// becomes the sole track. The result is written to a temporary path and
// renamed over outPath only after the encode succeeds, so a crash mid-write
// leaves any previous output untouched.
func (r *Runner) MixMusic(ctx context.Context, videoPath, musicPath, outPath string, p MixParams) error {
	if _, err := os.Stat(musicPath); err != nil {
		return fmt.Errorf("mix: music %s: %w: %w", musicPath, domain.ErrAudioSource, err)
	}

	video, err := r.Probe(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("mix: probe video: %w", err)
	}
	music, err := r.Probe(ctx, musicPath)
	if err != nil {
		return fmt.Errorf("mix: probe music: %w: %w", domain.ErrAudioSource, err)
	}

	target := video.Duration
	if p.ExpectedDurationSeconds > target {
		target = p.ExpectedDurationSeconds
	}

	remaining := music.Duration - p.TrackOffsetSeconds
	if remaining < target-p.StartDelaySeconds {
		r.logger.Warn().
			Float64("music_remaining", remaining).
			Float64("video_remaining", target-p.StartDelaySeconds).
			Msg("media: music shorter than video, looping to fill")
	}

	args := []string{"-y", "-i", videoPath, "-stream_loop", "-1"}
	if p.TrackOffsetSeconds > 0 {
		args = append(args, "-ss", formatSeconds(p.TrackOffsetSeconds))
	}
	args = append(args, "-i", musicPath)

	filter := mixFilter(p.Volume, p.StartDelaySeconds, video.HasAudio)

	// The video stream is copied untouched unless the target outlasts it,
	// in which case the last frame is cloned to pad the difference.
	extra := target - video.Duration
	if extra > 0.05 {
		filter = fmt.Sprintf("[0:v]tpad=stop_mode=clone:stop_duration=%s[vout];%s", formatSeconds(extra), filter)
		args = append(args,
			"-filter_complex", filter,
			"-map", "[vout]",
			"-c:v", "libx264", "-pix_fmt", "yuv420p",
		)
	} else {
		args = append(args,
			"-filter_complex", filter,
			"-map", "0:v",
			"-c:v", "copy",
		)
	}
	args = append(args,
		"-map", "[aout]",
		"-c:a", "aac",
		"-t", formatSeconds(target),
	)

	tmp := outPath + ".tmp.mp4"
	args = append(args, tmp)

	if err := r.run(ctx, args...); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("mix: %w: %w", domain.ErrMediaEncode, err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("mix: finalize: %w", err)
	}
	return nil
}
