package music

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("music: api key is required")

// ErrEmptyAudio indicates the compose endpoint answered without usable audio.
var ErrEmptyAudio = errors.New("music: compose returned no audio")

// Options configures the ElevenLabs music client.
type Options struct {
	APIKey         string
	BaseURL        string
	DefaultLength  time.Duration
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Client generates background tracks through the ElevenLabs music API using
// the two-step plan-then-compose flow.
type Client struct {
	apiKey        string
	baseURL       string
	defaultLength time.Duration
	httpClient    *http.Client
	logger        zerolog.Logger
}

// ComposeRequest captures the inputs for one track.
type ComposeRequest struct {
	Prompt         string
	Length         time.Duration
	RefineBaseline bool
}

// Track is the normalized compose result.
type Track struct {
	Audio    []byte
	MimeType string
}

type planRequest struct {
	Prompt        string `json:"prompt"`
	MusicLengthMS int    `json:"music_length_ms"`
}

type composeRequest struct {
	CompositionPlan json.RawMessage `json:"composition_plan"`
}

type composeResponse struct {
	Audio       string `json:"audio"`
	AudioBase64 string `json:"audio_base64"`
	AudioURL    string `json:"audio_url"`
	URL         string `json:"url"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	length := opts.DefaultLength
	if length <= 0 {
		length = 45 * time.Second
	}
	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}
	return &Client{
		apiKey:        strings.TrimSpace(opts.APIKey),
		baseURL:       baseURL,
		defaultLength: length,
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Compose creates a composition plan for the prompt and renders it to audio.
func (c *Client) Compose(ctx context.Context, req ComposeRequest) (*Track, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("music: prompt is required")
	}
	if req.RefineBaseline {
		prompt = "[Refine existing track] " + prompt
	}
	length := req.Length
	if length <= 0 {
		length = c.defaultLength
	}

	plan, err := c.createPlan(ctx, prompt, length)
	if err != nil {
		return nil, err
	}
	return c.compose(ctx, plan)
}

func (c *Client) createPlan(ctx context.Context, prompt string, length time.Duration) (json.RawMessage, error) {
	payload, err := json.Marshal(planRequest{
		Prompt:        prompt,
		MusicLengthMS: int(length / time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("music: encode plan request: %w", err)
	}

	raw, contentType, status, err := c.post(ctx, "/music/plan", payload)
	if err != nil {
		return nil, fmt.Errorf("music: create plan: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("music: plan status %d: %s", status, truncate(string(raw), 300))
	}
	if !strings.Contains(contentType, "json") {
		return nil, fmt.Errorf("music: unexpected plan content type %q", contentType)
	}
	return json.RawMessage(raw), nil
}

func (c *Client) compose(ctx context.Context, plan json.RawMessage) (*Track, error) {
	payload, err := json.Marshal(composeRequest{CompositionPlan: plan})
	if err != nil {
		return nil, fmt.Errorf("music: encode compose request: %w", err)
	}

	raw, contentType, status, err := c.post(ctx, "/music", payload)
	if err != nil {
		return nil, fmt.Errorf("music: compose: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("music: compose status %d: %s", status, truncate(string(raw), 300))
	}

	// The API answers with raw audio bytes or a JSON envelope depending on
	// version; normalize both.
	if strings.HasPrefix(contentType, "audio/") {
		if len(raw) == 0 {
			return nil, ErrEmptyAudio
		}
		return &Track{Audio: raw, MimeType: contentType}, nil
	}

	var decoded composeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("music: decode compose response: %w", err)
	}
	if b64 := firstNonEmpty(decoded.Audio, decoded.AudioBase64); b64 != "" {
		audio, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("music: decode audio payload: %w", err)
		}
		return &Track{Audio: audio, MimeType: "audio/mpeg"}, nil
	}
	if url := firstNonEmpty(decoded.AudioURL, decoded.URL); url != "" {
		audio, err := c.download(ctx, url)
		if err != nil {
			return nil, err
		}
		return &Track{Audio: audio, MimeType: "audio/mpeg"}, nil
	}
	return nil, ErrEmptyAudio
}

func (c *Client) post(ctx context.Context, path string, payload []byte) (body []byte, contentType string, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", resp.StatusCode, err
	}
	return raw, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("music: build download: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("music: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("music: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("music: read download: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}
	return data, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
