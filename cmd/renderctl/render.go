package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"storybuilder/internal/domain"
)

var (
	sceneFile   string
	optionsFile string
	generator   string
	attachMusic bool
	sanitize    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the scene into a video",
	Long: `Render runs the full pipeline: one remote clip per beat with
continuity seeding, concatenation into the raw video, and an optional music
mix. The scene comes from --scene or from the saved snapshot.`,
	RunE: runRender,
}

var remixCmd = &cobra.Command{
	Use:   "remix",
	Short: "Re-mix the last raw video with new music parameters",
	RunE:  runRemix,
}

func init() {
	renderCmd.Flags().StringVarP(&sceneFile, "scene", "s", "", "scene JSON file (default: saved snapshot)")
	renderCmd.Flags().StringVarP(&optionsFile, "options", "c", "", "render options YAML file")
	renderCmd.Flags().StringVarP(&generator, "generator", "g", "", "generator: sora or slides")
	renderCmd.Flags().BoolVar(&attachMusic, "music", false, "mix the saved music track into the output")
	renderCmd.Flags().BoolVar(&sanitize, "sanitize", true, "soften prompt wording before submission")

	remixCmd.Flags().StringVarP(&optionsFile, "options", "c", "", "render options YAML file")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(remixCmd)
}

func loadOptions(cmd *cobra.Command) (domain.RenderOptions, error) {
	var opts domain.RenderOptions
	if optionsFile != "" {
		data, err := os.ReadFile(optionsFile)
		if err != nil {
			return opts, fmt.Errorf("read options: %w", err)
		}
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return opts, fmt.Errorf("parse options: %w", err)
		}
	}
	if generator != "" {
		opts.Generator = generator
	}
	if attachMusic {
		opts.AttachMusic = true
	}
	if cmd.Flags().Changed("sanitize") || optionsFile == "" {
		opts.SanitizePrompts = sanitize
	}
	return opts.Normalize(), nil
}

func loadScene(cmd *cobra.Command) (*domain.Scene, error) {
	if sceneFile == "" {
		return services.Scenes.LoadScene(cmd.Context())
	}
	data, err := os.ReadFile(sceneFile)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var sc domain.Scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if err := services.Scenes.SaveScene(cmd.Context(), &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	sc, err := loadScene(cmd)
	if err != nil {
		return err
	}

	logger.Info().
		Str("generator", opts.Generator).
		Int("beats", len(sc.Beats)).
		Msg("starting render")

	result, err := services.Runner.Run(cmd.Context(), sc, opts)
	if err != nil {
		if result != nil && result.RawPath != "" {
			logger.Warn().Str("raw_path", result.RawPath).Msg("raw video is still valid")
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.OutputPath)
	return nil
}

func runRemix(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	outPath, err := services.Runner.Remix(cmd.Context(), opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outPath)
	return nil
}
