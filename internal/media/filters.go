package media

import (
	"fmt"
	"strings"
)

const composeFPS = 24

// letterboxFilter scales to fit inside width×height preserving aspect ratio
// and centers the result on a black canvas of exactly that size.
func letterboxFilter(width, height int) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black",
		width, height, width, height,
	)
}

// concatFilter builds a filter_complex that places each clip on its own
// canvas sized to the output (the compose strategy), so inputs of differing
// resolutions and frame rates concatenate cleanly. withAudio controls
// whether audio streams join the concat.
func concatFilter(n, width, height int, withAudio bool) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[%d:v]%s,setsar=1,fps=%d[v%d];", i, letterboxFilter(width, height), composeFPS, i)
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "[v%d]", i)
		if withAudio {
			fmt.Fprintf(&sb, "[%d:a]", i)
		}
	}
	audioCount := 0
	if withAudio {
		audioCount = 1
	}
	fmt.Fprintf(&sb, "concat=n=%d:v=1:a=%d[vout]", n, audioCount)
	if withAudio {
		sb.WriteString("[aout]")
	}
	return sb.String()
}

// mixFilter builds the music chain for MixMusic: gain, optional start delay,
// and an optional composite with the video's own audio track.
func mixFilter(volume, delaySeconds float64, videoHasAudio bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[1:a]volume=%.3f", volume)
	if delaySeconds > 0 {
		ms := int(delaySeconds * 1000)
		fmt.Fprintf(&sb, ",adelay=%d|%d", ms, ms)
	}
	if videoHasAudio {
		sb.WriteString("[mus];[0:a][mus]amix=inputs=2:duration=longest:normalize=0[aout]")
	} else {
		sb.WriteString("[aout]")
	}
	return sb.String()
}

// escapeDrawText escapes the characters the drawtext filter treats as
// syntax.
func escapeDrawText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(s)
}
