package domain

import "testing"

func TestSortedBeatsOutOfOrder(t *testing.T) {
	s := &Scene{
		Title: "Test",
		Beats: []Beat{
			{Order: 3, Description: "C"},
			{Order: 1, Description: "A"},
			{Order: 2, Description: "B"},
		},
	}
	got := s.SortedBeats()
	want := []string{"A", "B", "C"}
	for i, b := range got {
		if b.Description != want[i] {
			t.Fatalf("beat %d = %q, want %q", i, b.Description, want[i])
		}
	}
	if s.Beats[0].Description != "C" {
		t.Fatalf("SortedBeats mutated the scene's beat slice")
	}
}

func TestTargetDurationPrefersPadded(t *testing.T) {
	b := Beat{DurationSeconds: 3, PaddedDurationSeconds: 5}
	if got := b.TargetDuration(); got != 5 {
		t.Fatalf("TargetDuration = %v, want 5", got)
	}
	b.PaddedDurationSeconds = 0
	if got := b.TargetDuration(); got != 3 {
		t.Fatalf("TargetDuration = %v, want 3", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		scene   *Scene
		wantErr bool
	}{
		{
			name:    "no beats",
			scene:   &Scene{Title: "Empty"},
			wantErr: true,
		},
		{
			name: "duplicate character",
			scene: &Scene{
				Title:      "Dup",
				Characters: []Character{{Name: "Ann", Description: "x"}, {Name: "Ann", Description: "y"}},
				Beats:      []Beat{{Order: 1, Description: "a"}},
			},
			wantErr: true,
		},
		{
			name: "negative duration",
			scene: &Scene{
				Title: "Neg",
				Beats: []Beat{{Order: 1, Description: "a", DurationSeconds: -1}},
			},
			wantErr: true,
		},
		{
			name: "ok",
			scene: &Scene{
				Title:      "OK",
				Characters: []Character{{Name: "Ann", Description: "x"}},
				Beats:      []Beat{{Order: 1, Description: "a", DurationSeconds: 4}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.scene.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRenderOptionsNormalize(t *testing.T) {
	got := RenderOptions{}.Normalize()
	if got.Generator != GeneratorSora {
		t.Fatalf("generator = %q", got.Generator)
	}
	if got.Width != 1280 || got.Height != 720 {
		t.Fatalf("resolution = %dx%d", got.Width, got.Height)
	}
	if got.MusicVolume != 0.2 {
		t.Fatalf("volume = %v", got.MusicVolume)
	}

	custom := RenderOptions{Width: 1920, Height: 1080, MusicVolume: 0.5}.Normalize()
	if custom.Width != 1920 || custom.MusicVolume != 0.5 {
		t.Fatalf("normalize clobbered explicit values: %+v", custom)
	}
}
