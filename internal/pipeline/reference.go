package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storybuilder/internal/domain"
	"storybuilder/internal/prompt"
	"storybuilder/internal/providers/chat"
	"storybuilder/internal/providers/image"
	"storybuilder/internal/scene"
)

// ImageDescriber turns a hosted image URL into a rich textual description
// that segment prompts can carry alongside the reference bytes.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, imageURL string) (string, error)
}

var _ ImageDescriber = (*chat.Client)(nil)

// AssetBuilder prepares a scene's image assets before a run: one portrait
// per character and the composite frame that seeds the first segment.
type AssetBuilder struct {
	images    image.Generator
	describer ImageDescriber
	store     *scene.Store
	logger    zerolog.Logger
}

// NewAssetBuilder wires an asset builder from its collaborators. A nil
// describer skips composite descriptions.
func NewAssetBuilder(images image.Generator, describer ImageDescriber, store *scene.Store, logger zerolog.Logger) *AssetBuilder {
	return &AssetBuilder{images: images, describer: describer, store: store, logger: logger}
}

// BuildPortraits generates and stores a portrait for every character that
// does not already have one. Portraits are independent of each other, so
// they run concurrently with a small cap.
func (b *AssetBuilder) BuildPortraits(ctx context.Context, sc *domain.Scene) error {
	style := prompt.NormalizeStyle(sc.ArtStyle)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, c := range sc.Characters {
		c := c
		if _, ok := b.store.PortraitPath(c.Name); ok {
			continue
		}
		g.Go(func() error {
			asset, err := b.images.Generate(ctx, image.Request{
				Prompt:        portraitPrompt(c, style),
				ReferenceNote: "match the scene's shared art style for compositing",
			})
			if err != nil {
				return fmt.Errorf("portrait %s: %w", c.Name, err)
			}
			if _, err := b.store.SavePortrait(ctx, c.Name, asset.Data); err != nil {
				return fmt.Errorf("portrait %s: %w", c.Name, err)
			}
			b.logger.Info().Str("character", c.Name).Msg("portrait generated")
			return nil
		})
	}
	return g.Wait()
}

// BuildComposite generates the single establishing frame showing the cast
// in the scene's setting and saves it as the run seed image. When the image
// provider returns a hosted URL, the vision model's description of it is
// stored too, and later folded into the first segment's prompt. Description
// failures degrade to an undescribed composite.
func (b *AssetBuilder) BuildComposite(ctx context.Context, sc *domain.Scene) (string, error) {
	asset, err := b.images.Generate(ctx, image.Request{Prompt: compositePrompt(sc)})
	if err != nil {
		return "", fmt.Errorf("composite: %w", err)
	}
	path, err := b.store.SaveComposite(ctx, asset.Data)
	if err != nil {
		return "", fmt.Errorf("composite: %w", err)
	}

	if b.describer != nil && asset.URL != "" {
		desc, err := b.describer.DescribeImage(ctx, asset.URL)
		switch {
		case err != nil:
			b.logger.Warn().Err(err).Msg("composite description failed")
		case desc != "":
			if err := b.store.SaveCompositeDescription(ctx, desc); err != nil {
				b.logger.Warn().Err(err).Msg("composite description save failed")
			}
		}
	}
	return path, nil
}

func portraitPrompt(c domain.Character, style string) string {
	if p := strings.TrimSpace(c.ImagePrompt); p != "" {
		return p + ". Art style: " + style + "."
	}
	var sb strings.Builder
	sb.WriteString("Character portrait of " + c.Name)
	if c.Age != "" {
		sb.WriteString(", age " + c.Age)
	}
	if c.Description != "" {
		sb.WriteString(". " + c.Description)
	}
	if c.StyleHint != "" {
		sb.WriteString(". " + c.StyleHint)
	}
	sb.WriteString(". Art style: " + style + ". Neutral background, no text.")
	return sb.String()
}

func compositePrompt(sc *domain.Scene) string {
	style := prompt.NormalizeStyle(sc.ArtStyle)

	chars := make([]string, 0, len(sc.Characters))
	for _, c := range sc.Characters {
		chars = append(chars, c.Name+": "+c.Description)
	}
	beats := sc.SortedBeats()
	if len(beats) > 4 {
		beats = beats[:4]
	}
	moods := make([]string, 0, len(beats))
	for _, b := range beats {
		moods = append(moods, b.Description)
	}

	var sb strings.Builder
	sb.WriteString("One cinematic, high-resolution illustration in " + style + " style showing all main characters together. ")
	sb.WriteString("Setting: " + sc.Background.Description)
	if sc.Background.Location != "" {
		sb.WriteString(", " + sc.Background.Location)
	}
	if sc.Background.TimeOfDay != "" {
		sb.WriteString(", time: " + sc.Background.TimeOfDay)
	}
	sb.WriteString(". Characters: " + strings.Join(chars, "; ") + ". ")
	sb.WriteString("Mood and action: " + strings.Join(moods, "; ") + ". ")
	sb.WriteString("Full scene in one frame, cohesive lighting, consistent style across characters and environment. No text, no captions, no watermarks.")
	return sb.String()
}
