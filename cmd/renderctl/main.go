package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"storybuilder/internal/bootstrap"
	"storybuilder/internal/infra"
)

var (
	verbose  bool
	services *bootstrap.Services
	logger   infra.Logger
)

var rootCmd = &cobra.Command{
	Use:   "renderctl",
	Short: "Run the story video pipeline from the command line",
	Long: `Renderctl drives the scene-to-video pipeline locally, without the API
server or the job queue: structure a scene, render it beat by beat through
the remote video model, and mix in background music.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg, err := infra.LoadConfig(false)
		if err != nil {
			return err
		}
		appEnv := cfg.AppEnv
		if verbose {
			appEnv = "development"
		}
		logger = infra.NewLogger(appEnv)
		services, err = bootstrap.Build(cfg, logger)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
