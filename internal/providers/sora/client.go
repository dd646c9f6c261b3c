package sora

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"storybuilder/internal/domain"
)

// ErrMissingAPIKey indicates the client was configured without credentials.
var ErrMissingAPIKey = errors.New("sora: api key is required")

// ReferenceMode selects how a reference image travels with a submission.
type ReferenceMode string

const (
	// ReferenceMultipart attaches the image as a multipart form file.
	ReferenceMultipart ReferenceMode = "multipart"
	// ReferenceDataURL embeds the image as a base64 data URL in the JSON
	// payload, for providers without multipart submission.
	ReferenceDataURL ReferenceMode = "data_url"
)

// Options configures the video generation client.
type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	ReferenceMode ReferenceMode
	HTTPClient    *http.Client
	Logger        *zerolog.Logger
	PollInterval  time.Duration
	PollBudget    time.Duration
}

// Client submits video generation jobs to an OpenAI-compatible /videos
// endpoint and polls them to completion.
type Client struct {
	apiKey        string
	baseURL       string
	model         string
	referenceMode ReferenceMode
	httpClient    *http.Client
	logger        zerolog.Logger
	pollInterval  time.Duration
	pollBudget    time.Duration
}

// GenerateRequest captures one segment's generation inputs. DurationSeconds
// must already be quantized to a provider-accepted length.
type GenerateRequest struct {
	Prompt            string
	DurationSeconds   int
	Width             int
	Height            int
	Model             string
	ReferenceImage    []byte
	ReferenceImageURL string
	RequestID         string
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "sora-2"
	}
	mode := opts.ReferenceMode
	if mode == "" {
		mode = ReferenceMultipart
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	budget := opts.PollBudget
	if budget <= 0 {
		budget = 6 * time.Minute
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
		model:         model,
		referenceMode: mode,
		httpClient:    httpClient,
		logger:        logger,
		pollInterval:  interval,
		pollBudget:    budget,
	}, nil
}

// Model returns the configured default model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate submits one segment request, polls the job to a terminal state,
// and returns the normalized media result. Submission rejections, terminal
// failures, poll-budget exhaustion, and empty results map onto the domain
// error taxonomy; nothing is retried here.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*Media, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("sora: prompt is required")
	}

	job, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if media := job.media(); media.Kind != MediaNone {
		// Provider answered inline, nothing to poll.
		return &media, nil
	}
	if job.ID == "" {
		return nil, fmt.Errorf("sora: submit response missing job id: %w", domain.ErrRemoteSubmission)
	}
	return c.poll(ctx, job.ID)
}

func (c *Client) submit(ctx context.Context, req GenerateRequest) (*jobResponse, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if len(req.ReferenceImage) > 0 && c.referenceMode == ReferenceMultipart {
		body, contentType, err = c.multipartBody(req)
	} else {
		body, contentType, err = c.jsonBody(req)
	}
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/videos", body)
	if err != nil {
		return nil, fmt.Errorf("sora: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sora: submit: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sora: read submit response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sora: status %d: %s: %w",
			resp.StatusCode, truncate(string(raw), 500), domain.ErrRemoteSubmission)
	}

	var job jobResponse
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("sora: decode submit response: %w", err)
	}
	c.logger.Debug().Str("job_id", job.ID).Str("status", job.state()).Msg("sora: submitted")
	return &job, nil
}

func (c *Client) jsonBody(req GenerateRequest) (io.Reader, string, error) {
	payload := map[string]any{
		"model":  c.resolveModel(req.Model),
		"prompt": req.Prompt,
	}
	if req.DurationSeconds > 0 {
		payload["seconds"] = fmt.Sprintf("%d", req.DurationSeconds)
	}
	if req.Width > 0 && req.Height > 0 {
		payload["size"] = fmt.Sprintf("%dx%d", req.Width, req.Height)
	}
	if ref := strings.TrimSpace(req.ReferenceImageURL); ref != "" {
		payload["input_reference"] = ref
	} else if len(req.ReferenceImage) > 0 {
		payload["input_reference"] = DataURL(req.ReferenceImage, "image/png")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("sora: encode request: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

func (c *Client) multipartBody(req GenerateRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"model":  c.resolveModel(req.Model),
		"prompt": req.Prompt,
	}
	if req.DurationSeconds > 0 {
		fields["seconds"] = fmt.Sprintf("%d", req.DurationSeconds)
	}
	if req.Width > 0 && req.Height > 0 {
		fields["size"] = fmt.Sprintf("%dx%d", req.Width, req.Height)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("sora: write field %s: %w", k, err)
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="input_reference"; filename="reference.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("sora: create reference part: %w", err)
	}
	if _, err := part.Write(req.ReferenceImage); err != nil {
		return nil, "", fmt.Errorf("sora: write reference: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("sora: close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) resolveModel(override string) string {
	if m := strings.TrimSpace(override); m != "" {
		return m
	}
	return c.model
}

func (c *Client) poll(ctx context.Context, jobID string) (*Media, error) {
	attempts := int(c.pollBudget / c.pollInterval)
	if attempts < 1 {
		attempts = 1
	}
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		job, err := c.fetchJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch job.state() {
		case "succeeded", "completed", "ready":
			return c.extractMedia(ctx, job)
		case "failed", "error":
			return nil, fmt.Errorf("sora: job %s: %s: %w", jobID, job.errorMessage(), domain.ErrRemoteJobFailed)
		}
	}
	return nil, fmt.Errorf("sora: job %s after %s: %w", jobID, c.pollBudget, domain.ErrRemoteJobTimeout)
}

func (c *Client) fetchJob(ctx context.Context, jobID string) (*jobResponse, error) {
	raw, status, err := c.get(ctx, fmt.Sprintf("%s/videos/%s", c.baseURL, jobID))
	if err != nil {
		return nil, fmt.Errorf("sora: poll: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("sora: poll status %d: %s", status, truncate(string(raw), 300))
	}
	var job jobResponse
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("sora: decode poll response: %w", err)
	}
	return &job, nil
}

// extractMedia resolves a terminal job into media following a fixed
// priority: an embedded result URL, a listed output file's download URL,
// that file's fetched content, and finally the job's generic content
// endpoint.
func (c *Client) extractMedia(ctx context.Context, job *jobResponse) (*Media, error) {
	if media := job.media(); media.Kind != MediaNone {
		return &media, nil
	}

	files, err := c.listFiles(ctx, job.ID)
	if err == nil {
		for _, f := range files {
			if !f.isVideo() {
				continue
			}
			if url := f.downloadURL(); url != "" {
				return &Media{Kind: MediaRemoteURL, URL: url}, nil
			}
			if f.ID != "" {
				data, err := c.fetchBytes(ctx, fmt.Sprintf("%s/videos/%s/files/%s/content", c.baseURL, job.ID, f.ID))
				if err == nil && len(data) > 0 {
					return &Media{Kind: MediaInline, Data: data}, nil
				}
			}
		}
	}

	data, err := c.fetchBytes(ctx, fmt.Sprintf("%s/videos/%s/content", c.baseURL, job.ID))
	if err == nil && len(data) > 0 {
		return &Media{Kind: MediaInline, Data: data}, nil
	}

	return nil, fmt.Errorf("sora: job %s completed: %w", job.ID, domain.ErrRemoteJobEmptyResult)
}

func (c *Client) listFiles(ctx context.Context, jobID string) ([]fileEntry, error) {
	raw, status, err := c.get(ctx, fmt.Sprintf("%s/videos/%s/files", c.baseURL, jobID))
	if err != nil || status >= 300 {
		return nil, fmt.Errorf("sora: list files status %d: %v", status, err)
	}
	var out struct {
		Data []fileEntry `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("sora: decode files: %w", err)
	}
	return out.Data, nil
}

// Download fetches remote media bytes, used when a result arrived as a URL.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	data, err := c.fetchBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("sora: download: %w", err)
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}

func (c *Client) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	raw, status, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("status %d", status)
	}
	return raw, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
