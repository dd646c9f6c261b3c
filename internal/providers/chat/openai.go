package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"storybuilder/internal/domain"
)

// ErrMissingAPIKey indicates the client was configured without credentials.
var ErrMissingAPIKey = errors.New("chat: api key is required")

const systemPrompt = "You are a screenwriting assistant. Always return a concise, " +
	"film-ready script that includes: (1) character names with clear " +
	"descriptions and personality cues, (2) a scene background description " +
	"covering time, place, and mood, (3) an explicit art style tag such as " +
	"realistic, 3d, watercolor, anime, comic, or painterly, and (4) brief, " +
	"production-friendly dialogue and action beats. Keep it around 20-40 " +
	"seconds of content unless asked otherwise."

const structurePrompt = "Return only valid JSON describing the scene. Keys: " +
	"scene_title (string), logline (string), art_style (string), " +
	"background (object: description, time_of_day, location), " +
	"characters (array of objects: name, age, description, style_hint, image_prompt), " +
	"beats (array of objects: order, description, dialogue (array of objects: " +
	"speaker, line), duration_seconds). Order is 1-based. Keep prompts concise."

// Message is one turn of a scripting conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures the chat client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	HTTPClient  *http.Client
	Logger      *zerolog.Logger
}

// Client wraps the OpenAI chat completions API for script drafting, scene
// structuring, and reference image description.
type Client struct {
	model       string
	visionModel string
	configured  bool
	api         openai.Client
	logger      zerolog.Logger
}

// NewClient constructs a chat client. A client without an API key is still
// usable for Configured checks, but every call returns ErrMissingAPIKey.
func NewClient(opts Options) *Client {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	visionModel := strings.TrimSpace(opts.VisionModel)
	if visionModel == "" {
		visionModel = model
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}
	return &Client{
		model:       model,
		visionModel: visionModel,
		configured:  strings.TrimSpace(opts.APIKey) != "",
		api:         openai.NewClient(reqOpts...),
		logger:      logger,
	}
}

// Configured reports whether remote calls can succeed.
func (c *Client) Configured() bool {
	return c.configured
}

// Reply continues a scripting conversation and returns the assistant's turn.
func (c *Client) Reply(ctx context.Context, history []Message) (string, error) {
	if !c.configured {
		return "", ErrMissingAPIKey
	}
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openai.SystemMessage(systemPrompt))
	for _, m := range history {
		switch m.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    msgs,
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("chat: reply: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// StructureScene converts freeform script text into a validated scene.
func (c *Client) StructureScene(ctx context.Context, scriptText string) (*domain.Scene, error) {
	if !c.configured {
		return nil, ErrMissingAPIKey
	}
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(structurePrompt),
			openai.UserMessage("Structure this script into JSON for downstream generation. Script:\n" + scriptText),
		},
		Temperature: openai.Float(0.3),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat: structure scene: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat: empty choices")
	}

	var scene domain.Scene
	if err := json.Unmarshal([]byte(stripFences(resp.Choices[0].Message.Content)), &scene); err != nil {
		return nil, fmt.Errorf("chat: decode scene json: %w", err)
	}
	if err := scene.Validate(); err != nil {
		return nil, fmt.Errorf("chat: structured scene invalid: %w", err)
	}
	return &scene, nil
}

// MusicDirection asks the model for a short background-music brief matching
// the scene's mood, suitable as a composition prompt.
func (c *Client) MusicDirection(ctx context.Context, scene *domain.Scene) (string, error) {
	if !c.configured {
		return "", ErrMissingAPIKey
	}
	var sb strings.Builder
	sb.WriteString("Write a one-sentence instrumental background music brief ")
	sb.WriteString("(genre, tempo, mood, instrumentation, no vocals) for this scene.\n")
	sb.WriteString("Title: " + scene.Title + "\n")
	if scene.Logline != "" {
		sb.WriteString("Logline: " + scene.Logline + "\n")
	}
	sb.WriteString("Setting: " + scene.Background.Description)

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(sb.String()),
		},
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", fmt.Errorf("chat: music direction: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// DescribeImage sends a reference image URL to a vision-capable model and
// returns a rich textual description. Only HTTP(S) URLs are accepted; local
// paths cannot be fetched by the provider.
func (c *Client) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	if !c.configured {
		return "", ErrMissingAPIKey
	}
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return "", fmt.Errorf("chat: image url must be http(s), got %q", imageURL)
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.visionModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Describe this image in rich visual detail. Focus on people, environment, style, lighting, and color."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat: describe image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// stripFences removes a markdown code fence wrapper some models add around
// JSON output despite the response format instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
