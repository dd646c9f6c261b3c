package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Runner shells out to ffmpeg/ffprobe for all local media work: probing,
// frame extraction, letterboxing, concatenation, and music mixing.
type Runner struct {
	ffmpegPath  string
	ffprobePath string
	logger      zerolog.Logger
}

// NewRunner builds a Runner that resolves ffmpeg/ffprobe from PATH.
func NewRunner(logger zerolog.Logger) *Runner {
	return &Runner{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe", logger: logger}
}

// Available reports whether ffmpeg and ffprobe can be found on PATH.
func Available() bool {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return false
	}
	_, err := exec.LookPath("ffprobe")
	return err == nil
}

// Info holds the subset of probe data the pipeline cares about.
type Info struct {
	Duration float64
	HasAudio bool
	Width    int
	Height   int
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe reads duration, stream layout, and video dimensions from a media file.
func (r *Runner) Probe(ctx context.Context, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, r.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-show_entries", "stream=codec_type,width,height",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("ffprobe %s: parse: %w", path, err)
	}

	info := &Info{}
	info.Duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "audio":
			info.HasAudio = true
		case "video":
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
		}
	}
	return info, nil
}

// run executes ffmpeg with the given arguments, returning stderr context on
// failure.
func (r *Runner) run(ctx context.Context, args ...string) error {
	r.logger.Debug().Strs("args", args).Msg("media: ffmpeg")
	cmd := exec.CommandContext(ctx, r.ffmpegPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(string(out), 500))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
