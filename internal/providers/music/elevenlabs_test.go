package music

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
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

func audioResponse(data []byte) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"audio/mpeg"}},
		Body:       io.NopCloser(strings.NewReader(string(data))),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: rt},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestComposePlanThenRawAudio(t *testing.T) {
	var planBody planRequest
	var composeBody map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("xi-api-key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		switch {
		case strings.HasSuffix(req.URL.Path, "/music/plan"):
			raw, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(raw, &planBody)
			return jsonResponse(200, map[string]any{"sections": []map[string]any{{"name": "intro"}}}), nil
		case strings.HasSuffix(req.URL.Path, "/music"):
			raw, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(raw, &composeBody)
			return audioResponse([]byte("mp3-bytes")), nil
		default:
			t.Fatalf("unexpected path %s", req.URL.Path)
			return nil, nil
		}
	})

	track, err := client.Compose(context.Background(), ComposeRequest{
		Prompt: "upbeat acoustic morning theme",
		Length: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if string(track.Audio) != "mp3-bytes" || track.MimeType != "audio/mpeg" {
		t.Fatalf("track = %+v", track)
	}
	if planBody.MusicLengthMS != 30000 {
		t.Fatalf("music_length_ms = %d", planBody.MusicLengthMS)
	}
	if _, ok := composeBody["composition_plan"]; !ok {
		t.Fatalf("compose body missing plan: %v", composeBody)
	}
}

func TestComposeBase64Envelope(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/music/plan") {
			return jsonResponse(200, map[string]any{"sections": []any{}}), nil
		}
		return jsonResponse(200, map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString([]byte("b64-audio")),
		}), nil
	})

	track, err := client.Compose(context.Background(), ComposeRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if string(track.Audio) != "b64-audio" {
		t.Fatalf("track = %+v", track)
	}
}

func TestComposeURLEnvelope(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/music/plan"):
			return jsonResponse(200, map[string]any{"sections": []any{}}), nil
		case req.Method == http.MethodGet:
			return audioResponse([]byte("downloaded-audio")), nil
		default:
			return jsonResponse(200, map[string]any{"audio_url": "https://cdn.example.com/track.mp3"}), nil
		}
	})

	track, err := client.Compose(context.Background(), ComposeRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if string(track.Audio) != "downloaded-audio" {
		t.Fatalf("track = %+v", track)
	}
}

func TestComposeRefineBaselinePrefix(t *testing.T) {
	var planBody planRequest
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/music/plan") {
			raw, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(raw, &planBody)
			return jsonResponse(200, map[string]any{}), nil
		}
		return audioResponse([]byte("a")), nil
	})

	if _, err := client.Compose(context.Background(), ComposeRequest{Prompt: "theme", RefineBaseline: true}); err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.HasPrefix(planBody.Prompt, "[Refine existing track] ") {
		t.Fatalf("prompt = %q", planBody.Prompt)
	}
}

func TestComposePlanRejected(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(402, map[string]any{"detail": "quota exceeded"}), nil
	})

	_, err := client.Compose(context.Background(), ComposeRequest{Prompt: "p"})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("err = %v", err)
	}
}

func TestComposeEmptyEnvelope(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if strings.HasSuffix(req.URL.Path, "/music/plan") {
			return jsonResponse(200, map[string]any{}), nil
		}
		return jsonResponse(200, map[string]any{}), nil
	})

	if _, err := client.Compose(context.Background(), ComposeRequest{Prompt: "p"}); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("err = %v, want ErrEmptyAudio", err)
	}
}

func TestComposeRequiresCredentials(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Compose(context.Background(), ComposeRequest{Prompt: "p"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}
