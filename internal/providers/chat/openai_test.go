package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func completionResponse(content string) *http.Response {
	body := map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: 200,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(string(data))),
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	return NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: rt},
	})
}

func TestReplyIncludesSystemAndHistory(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &payload)
		return completionResponse("INT. KITCHEN - MORNING"), nil
	})

	reply, err := client.Reply(context.Background(), []Message{
		{Role: "user", Content: "a breakfast mishap"},
		{Role: "assistant", Content: "draft one"},
		{Role: "user", Content: "make it shorter"},
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != "INT. KITCHEN - MORNING" {
		t.Fatalf("reply = %q", reply)
	}

	msgs, ok := payload["messages"].([]any)
	if !ok || len(msgs) != 4 {
		t.Fatalf("messages = %v", payload["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Fatalf("first message role = %v", first["role"])
	}
}

func TestStructureSceneDecodesAndValidates(t *testing.T) {
	sceneJSON := `{
		"scene_title": "Morning Chase",
		"art_style": "anime",
		"background": {"description": "a sunny park", "time_of_day": "morning"},
		"characters": [{"name": "Milo", "description": "a terrier"}],
		"beats": [
			{"order": 2, "description": "Milo catches the frisbee"},
			{"order": 1, "description": "Milo spots a frisbee", "dialogue": [{"speaker": "Milo", "line": "Mine!"}]}
		]
	}`
	var payload map[string]any
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &payload)
		return completionResponse(sceneJSON), nil
	})

	scene, err := client.StructureScene(context.Background(), "a dog chases a frisbee")
	if err != nil {
		t.Fatalf("structure scene: %v", err)
	}
	if scene.Title != "Morning Chase" || len(scene.Beats) != 2 {
		t.Fatalf("scene = %+v", scene)
	}

	if rf, ok := payload["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
		t.Fatalf("response_format = %v", payload["response_format"])
	}
	if temp, ok := payload["temperature"].(float64); !ok || temp != 0.3 {
		t.Fatalf("temperature = %v", payload["temperature"])
	}
}

func TestStructureSceneStripsCodeFence(t *testing.T) {
	content := "```json\n{\"scene_title\":\"T\",\"art_style\":\"comic\",\"background\":{\"description\":\"d\"},\"beats\":[{\"order\":1,\"description\":\"b\"}]}\n```"
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return completionResponse(content), nil
	})

	scene, err := client.StructureScene(context.Background(), "t")
	if err != nil {
		t.Fatalf("structure scene: %v", err)
	}
	if scene.Title != "T" {
		t.Fatalf("scene = %+v", scene)
	}
}

func TestStructureSceneRejectsInvalid(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return completionResponse(`{"scene_title": "Empty", "beats": []}`), nil
	})

	if _, err := client.StructureScene(context.Background(), "t"); err == nil {
		t.Fatal("expected validation error for scene without beats")
	}
}

func TestDescribeImageRequiresHTTPURL(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	if _, err := client.DescribeImage(context.Background(), "/tmp/ref.png"); err == nil {
		t.Fatal("expected error for local path")
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient(Options{})
	if client.Configured() {
		t.Fatal("client without key must not report configured")
	}
	if _, err := client.Reply(context.Background(), nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}
