package image

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
var ErrMissingAPIKey = errors.New("image: api key is required")

// ErrEmptyResult indicates the provider returned neither a URL nor inline data.
var ErrEmptyResult = errors.New("image: generation returned no url or base64 data")

// Options configures the OpenAI images client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	DefaultSize    string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the OpenAI image generation API.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	defaultSize string
	httpClient  *http.Client
	logger      zerolog.Logger
}

var _ Generator = (*Client)(nil)

type generationRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
	N      int    `json:"n,omitempty"`
}

type generationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "dall-e-3"
	}
	defaultSize := strings.TrimSpace(opts.DefaultSize)
	if defaultSize == "" {
		defaultSize = "1024x1024"
	}
	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		model:       model,
		defaultSize: defaultSize,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate requests one image and resolves the result to bytes, downloading
// when the provider answers with a URL.
func (c *Client) Generate(ctx context.Context, req Request) (*Asset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("image: prompt is required")
	}
	if note := strings.TrimSpace(req.ReferenceNote); note != "" {
		prompt = prompt + "\nReference note: " + note
	}
	size := strings.TrimSpace(req.Size)
	if size == "" {
		size = c.defaultSize
	}

	payload, err := json.Marshal(generationRequest{
		Model:  c.model,
		Prompt: prompt,
		Size:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("image: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("image: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image: generate: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image: read response: %w", err)
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("image: decode response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, fmt.Errorf("image: status %d: %s", resp.StatusCode, msg)
	}
	if len(decoded.Data) == 0 {
		return nil, ErrEmptyResult
	}

	entry := decoded.Data[0]
	switch {
	case entry.URL != "":
		data, err := c.download(ctx, entry.URL)
		if err != nil {
			return nil, err
		}
		return &Asset{Data: data, URL: entry.URL, Format: "png"}, nil
	case entry.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(entry.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("image: decode base64 payload: %w", err)
		}
		return &Asset{Data: data, Format: "png"}, nil
	default:
		return nil, ErrEmptyResult
	}
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("image: build download: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image: read download: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("image: downloaded empty body")
	}
	return data, nil
}
