package prompt

import (
	"fmt"
	"strings"

	"storybuilder/internal/domain"
)

// Markers whose presence means the scene's style already leans away from
// photorealism. Without one, remote video providers tend to produce
// realistic footage that trips moderation more often.
var animatedMarkers = []string{"cartoon", "animation", "anime", "comic", "cel"}

const closingInstructions = "Keep the tone family-friendly. Avoid on-screen text or subtitles. Include natural ambient sound."

// SegmentInput bundles everything the builder needs for one segment's
// prompt. Beats normally holds a single beat but accepts a slice so grouped
// segments render with shared context.
type SegmentInput struct {
	Scene           *domain.Scene
	Beats           []domain.Beat
	VisualReference string
	TargetSeconds   int
	Sanitize        bool
}

// BuildSegment turns one beat slice into a single natural-language prompt
// for the remote video model. It never fails; missing fields render as
// empty segments rather than errors.
func BuildSegment(in SegmentInput) string {
	clean := func(s string) string {
		s = strings.TrimSpace(s)
		if in.Sanitize {
			s = Soften(s)
		}
		return s
	}

	sc := in.Scene
	if sc == nil {
		sc = &domain.Scene{}
	}

	setting := sc.Background.Location
	if strings.TrimSpace(setting) == "" {
		setting = sc.Background.Description
	}

	characterLines := make([]string, 0, len(sc.Characters))
	for _, c := range sc.Characters {
		characterLines = append(characterLines, fmt.Sprintf("%s: %s", clean(c.Name), clean(c.Description)))
	}

	beatLines := make([]string, 0, len(in.Beats))
	dialogueLines := make([]string, 0, len(in.Beats))
	for _, b := range in.Beats {
		beatLines = append(beatLines, clean(b.Description))
		for _, d := range b.Dialogue {
			speaker := strings.ToUpper(strings.TrimSpace(d.Speaker))
			dialogueLines = append(dialogueLines, fmt.Sprintf("Beat %d: %s: %s", b.Order, speaker, clean(d.Line)))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a coherent cinematic sequence in %s style. ", NormalizeStyle(clean(sc.ArtStyle)))
	fmt.Fprintf(&sb, "Setting: %s. Environment detail: %s. ", clean(setting), clean(sc.Background.Description))
	fmt.Fprintf(&sb, "Characters: %s. ", strings.Join(characterLines, "; "))
	fmt.Fprintf(&sb, "Story beats: %s. ", strings.Join(beatLines, "; "))
	if len(dialogueLines) > 0 {
		fmt.Fprintf(&sb, "Dialogue: %s. ", strings.Join(dialogueLines, "; "))
	}
	if in.TargetSeconds > 0 {
		fmt.Fprintf(&sb, "Target length ~%d seconds with buffer. ", in.TargetSeconds)
	}
	if ref := strings.TrimSpace(in.VisualReference); ref != "" {
		fmt.Fprintf(&sb, "Visual reference: %s. ", clean(ref))
	}
	sb.WriteString(closingInstructions)
	return sb.String()
}

// NormalizeStyle biases free-text styles toward a non-realistic look unless
// the style already names an animated form.
func NormalizeStyle(style string) string {
	lowered := strings.ToLower(style)
	for _, marker := range animatedMarkers {
		if strings.Contains(lowered, marker) {
			return style
		}
	}
	if strings.TrimSpace(style) == "" {
		return "stylized animated"
	}
	return style + ", stylized non-photorealistic animated look"
}
