package sora

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"storybuilder/internal/domain"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, v any) *http.Response {
	data, _ := json.Marshal(v)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(string(data))),
	}
}

func binaryResponse(status int, data []byte) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"video/mp4"}},
		Body:       io.NopCloser(strings.NewReader(string(data))),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:       "test-key",
		HTTPClient:   &http.Client{Transport: rt},
		PollInterval: time.Millisecond,
		PollBudget:   50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGenerateInlineResult(t *testing.T) {
	var gets int
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(200, map[string]any{
				"id":     "vid_1",
				"status": "completed",
				"video":  map[string]any{"url": "https://cdn.example.com/vid_1.mp4"},
			}), nil
		}
		gets++
		return jsonResponse(404, nil), nil
	})

	media, err := client.Generate(context.Background(), GenerateRequest{Prompt: "a quiet street"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if media.Kind != MediaRemoteURL || media.URL != "https://cdn.example.com/vid_1.mp4" {
		t.Fatalf("media = %+v", media)
	}
	if gets != 0 {
		t.Fatalf("inline result must not poll, got %d GETs", gets)
	}
}

func TestGeneratePollsToSuccess(t *testing.T) {
	polls := 0
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(200, map[string]any{"id": "vid_2", "status": "queued"}), nil
		}
		polls++
		if polls < 3 {
			return jsonResponse(200, map[string]any{"id": "vid_2", "status": "in_progress"}), nil
		}
		return jsonResponse(200, map[string]any{
			"id":     "vid_2",
			"status": "succeeded",
			"data":   []map[string]any{{"download_url": "https://cdn.example.com/vid_2.mp4"}},
		}), nil
	})

	media, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if media.URL != "https://cdn.example.com/vid_2.mp4" {
		t.Fatalf("media = %+v", media)
	}
	if polls < 3 {
		t.Fatalf("expected at least 3 polls, got %d", polls)
	}
}

func TestGenerateFilesDownloadURLFallback(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodPost:
			return jsonResponse(200, map[string]any{"id": "vid_3", "status": "queued"}), nil
		case strings.HasSuffix(req.URL.Path, "/files"):
			return jsonResponse(200, map[string]any{
				"data": []map[string]any{
					{"id": "file_a", "filename": "log.txt", "mime_type": "text/plain"},
					{"id": "file_b", "filename": "out.mp4", "mime_type": "video/mp4", "download_url": "https://cdn.example.com/out.mp4"},
				},
			}), nil
		default:
			return jsonResponse(200, map[string]any{"id": "vid_3", "status": "ready"}), nil
		}
	})

	media, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if media.Kind != MediaRemoteURL || media.URL != "https://cdn.example.com/out.mp4" {
		t.Fatalf("media = %+v", media)
	}
}

func TestGenerateFileContentFallback(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodPost:
			return jsonResponse(200, map[string]any{"id": "vid_4", "status": "queued"}), nil
		case strings.HasSuffix(req.URL.Path, "/files/file_c/content"):
			return binaryResponse(200, payload), nil
		case strings.HasSuffix(req.URL.Path, "/files"):
			return jsonResponse(200, map[string]any{
				"data": []map[string]any{{"id": "file_c", "filename": "out.mp4", "mime_type": "video/mp4"}},
			}), nil
		default:
			return jsonResponse(200, map[string]any{"id": "vid_4", "status": "succeeded"}), nil
		}
	})

	media, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if media.Kind != MediaInline || len(media.Data) != len(payload) {
		t.Fatalf("media = %+v", media)
	}
}

func TestGenerateGenericContentFallback(t *testing.T) {
	payload := []byte("mp4-bytes")
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodPost:
			return jsonResponse(200, map[string]any{"id": "vid_5", "status": "queued"}), nil
		case strings.HasSuffix(req.URL.Path, "/files"):
			return jsonResponse(404, map[string]any{"error": "not found"}), nil
		case strings.HasSuffix(req.URL.Path, "/content"):
			return binaryResponse(200, payload), nil
		default:
			return jsonResponse(200, map[string]any{"id": "vid_5", "status": "completed"}), nil
		}
	})

	media, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if media.Kind != MediaInline || string(media.Data) != "mp4-bytes" {
		t.Fatalf("media = %+v", media)
	}
}

func TestGenerateSubmissionRejected(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(400, map[string]any{"error": map[string]any{"message": "moderation"}}), nil
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrRemoteSubmission) {
		t.Fatalf("err = %v, want ErrRemoteSubmission", err)
	}
	if !strings.Contains(err.Error(), "moderation") {
		t.Fatalf("error should carry the response body: %v", err)
	}
}

func TestGenerateJobFailed(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(200, map[string]any{"id": "vid_6", "status": "queued"}), nil
		}
		return jsonResponse(200, map[string]any{
			"id":     "vid_6",
			"status": "failed",
			"error":  map[string]any{"message": "content policy"},
		}), nil
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrRemoteJobFailed) {
		t.Fatalf("err = %v, want ErrRemoteJobFailed", err)
	}
	if !strings.Contains(err.Error(), "content policy") {
		t.Fatalf("error should carry the provider message: %v", err)
	}
}

func TestGenerateTimeout(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(200, map[string]any{"id": "vid_7", "status": "queued"}), nil
		}
		return jsonResponse(200, map[string]any{"id": "vid_7", "status": "in_progress"}), nil
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrRemoteJobTimeout) {
		t.Fatalf("err = %v, want ErrRemoteJobTimeout", err)
	}
}

func TestGenerateEmptyResult(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodPost:
			return jsonResponse(200, map[string]any{"id": "vid_8", "status": "queued"}), nil
		case strings.HasSuffix(req.URL.Path, "/files"):
			return jsonResponse(200, map[string]any{"data": []map[string]any{}}), nil
		case strings.HasSuffix(req.URL.Path, "/content"):
			return jsonResponse(404, nil), nil
		default:
			return jsonResponse(200, map[string]any{"id": "vid_8", "status": "succeeded"}), nil
		}
	})

	_, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrRemoteJobEmptyResult) {
		t.Fatalf("err = %v, want ErrRemoteJobEmptyResult", err)
	}
}

func TestGenerateMultipartReference(t *testing.T) {
	var contentType, body string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			contentType = req.Header.Get("Content-Type")
			raw, _ := io.ReadAll(req.Body)
			body = string(raw)
			return jsonResponse(200, map[string]any{
				"id":    "vid_9",
				"video": map[string]any{"url": "https://cdn.example.com/v.mp4"},
			}), nil
		}
		return jsonResponse(404, nil), nil
	})

	_, err := client.Generate(context.Background(), GenerateRequest{
		Prompt:          "p",
		DurationSeconds: 8,
		Width:           1280,
		Height:          720,
		ReferenceImage:  []byte{0x89, 'P', 'N', 'G'},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Fatalf("content type = %q", contentType)
	}
	for _, want := range []string{`name="input_reference"`, `name="seconds"`, "1280x720"} {
		if !strings.Contains(body, want) {
			t.Fatalf("multipart body missing %q", want)
		}
	}
}

func TestGenerateDataURLReference(t *testing.T) {
	var body string
	client, err := NewClient(Options{
		APIKey:        "k",
		ReferenceMode: ReferenceDataURL,
		PollInterval:  time.Millisecond,
		PollBudget:    10 * time.Millisecond,
		HTTPClient: &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(req.Body)
			body = string(raw)
			return jsonResponse(200, map[string]any{
				"id":    "vid_10",
				"video": map[string]any{"url": "https://cdn.example.com/v.mp4"},
			}), nil
		})},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Generate(context.Background(), GenerateRequest{
		Prompt:         "p",
		ReferenceImage: []byte{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(body, "data:image/png;base64,") {
		t.Fatalf("json body missing data url: %s", body)
	}
}

func TestGenerateRequiresCredentials(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Generate(context.Background(), GenerateRequest{Prompt: "p"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}
