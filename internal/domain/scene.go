package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Background describes the setting a scene plays in.
type Background struct {
	Description string `json:"description"`
	TimeOfDay   string `json:"time_of_day,omitempty"`
	Location    string `json:"location,omitempty"`
}

// Character is one member of the scene's cast. Names are unique within a
// scene and act as keys for avatar caches.
type Character struct {
	Name        string `json:"name"`
	Age         string `json:"age,omitempty"`
	Description string `json:"description"`
	StyleHint   string `json:"style_hint,omitempty"`
	ImagePrompt string `json:"image_prompt,omitempty"`
}

// DialogueLine is a single labeled spoken line inside a beat.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

// Beat is one narrative unit of a scene. Order is 1-based and defines
// playback sequence; beats are always processed sorted by Order.
type Beat struct {
	Order                 int            `json:"order"`
	Description           string         `json:"description"`
	Dialogue              []DialogueLine `json:"dialogue,omitempty"`
	DurationSeconds       float64        `json:"duration_seconds,omitempty"`
	PaddedDurationSeconds float64        `json:"padded_duration_seconds,omitempty"`
}

// TargetDuration returns the buffered duration estimate when present,
// otherwise the plain estimate.
func (b Beat) TargetDuration() float64 {
	if b.PaddedDurationSeconds > 0 {
		return b.PaddedDurationSeconds
	}
	return b.DurationSeconds
}

// Scene is the authoritative description of what to render. It is created or
// replaced wholesale whenever the script text changes and persisted as a
// single latest snapshot.
type Scene struct {
	Title      string      `json:"scene_title"`
	Logline    string      `json:"logline,omitempty"`
	ArtStyle   string      `json:"art_style"`
	Background Background  `json:"background"`
	Characters []Character `json:"characters,omitempty"`
	Beats      []Beat      `json:"beats"`
}

// SortedBeats returns a copy of the scene's beats in ascending playback
// order, regardless of the order the input array carried them in.
func (s *Scene) SortedBeats() []Beat {
	beats := append([]Beat(nil), s.Beats...)
	sort.SliceStable(beats, func(i, j int) bool {
		return beats[i].Order < beats[j].Order
	})
	return beats
}

// Validate checks the invariants a scene must satisfy before it can drive a
// video generation run.
func (s *Scene) Validate() error {
	if s == nil {
		return fmt.Errorf("scene: %w", ErrNoBeats)
	}
	if len(s.Beats) == 0 {
		return fmt.Errorf("scene %q: %w", s.Title, ErrNoBeats)
	}
	seen := make(map[string]struct{}, len(s.Characters))
	for _, c := range s.Characters {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("scene %q: character with empty name", s.Title)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("scene %q: duplicate character %q", s.Title, name)
		}
		seen[name] = struct{}{}
	}
	for _, b := range s.Beats {
		if b.DurationSeconds < 0 || b.PaddedDurationSeconds < 0 {
			return fmt.Errorf("scene %q: beat %d has negative duration", s.Title, b.Order)
		}
	}
	return nil
}
