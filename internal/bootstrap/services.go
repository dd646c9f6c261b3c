package bootstrap

import (
	"path/filepath"
	"time"

	"storybuilder/internal/infra"
	"storybuilder/internal/media"
	"storybuilder/internal/pipeline"
	"storybuilder/internal/providers/chat"
	"storybuilder/internal/providers/image"
	"storybuilder/internal/providers/music"
	"storybuilder/internal/providers/sora"
	"storybuilder/internal/scene"
	"storybuilder/internal/storage"
)

// Services bundles the pipeline collaborators shared by the API, the
// worker, and the CLI so each entry point wires them the same way.
type Services struct {
	Files  *storage.FileStore
	Scenes *scene.Store
	Chat   *chat.Client
	Music  *music.Client
	Images *image.Client
	Video  *sora.Client
	Media  *media.Runner
	Runner *pipeline.Runner
	Assets *pipeline.AssetBuilder
}

// Build constructs every service from configuration. Providers without
// credentials still construct; their calls fail with a missing-key error,
// and callers gate features on the credential checks.
func Build(cfg *infra.Config, logger infra.Logger) (*Services, error) {
	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	files, err := storage.NewFileStore(storagePath)
	if err != nil {
		return nil, err
	}
	scenes := scene.NewStore(files)

	chatClient := chat.NewClient(chat.Options{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		VisionModel: cfg.OpenAIVisionModel,
		Logger:      &logger,
	})
	musicClient, err := music.NewClient(music.Options{
		APIKey:        cfg.ElevenLabsAPIKey,
		BaseURL:       cfg.ElevenLabsBaseURL,
		DefaultLength: time.Duration(cfg.MusicLengthMS) * time.Millisecond,
		Logger:        &logger,
	})
	if err != nil {
		return nil, err
	}
	imageClient, err := image.NewClient(image.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIImageModel,
		Logger:  &logger,
	})
	if err != nil {
		return nil, err
	}
	videoClient, err := sora.NewClient(sora.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.SoraBaseURL,
		Model:      cfg.SoraModelID,
		Logger:     &logger,
		PollBudget: cfg.SoraPollWait,
	})
	if err != nil {
		return nil, err
	}

	mediaRunner := media.NewRunner(logger)
	runner := pipeline.NewRunner(videoClient, mediaRunner, scenes, logger)
	var describer pipeline.ImageDescriber
	if chatClient.Configured() {
		describer = chatClient
	}
	assets := pipeline.NewAssetBuilder(imageClient, describer, scenes, logger)

	return &Services{
		Files:  files,
		Scenes: scenes,
		Chat:   chatClient,
		Music:  musicClient,
		Images: imageClient,
		Video:  videoClient,
		Media:  mediaRunner,
		Runner: runner,
		Assets: assets,
	}, nil
}
