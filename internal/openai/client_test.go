package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tboyle/recipe-press/internal/retry"
)

func quietPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 2, BaseDelay: 1, MaxDelay: 1, Sleeper: func(time.Duration) {}}
}

func TestCompleteReturnsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "  hello  "}}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}, quietPolicy(), nil, nil)
	got, err := c.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestCompleteRetriesOn429(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, quietPolicy(), nil, nil)
	got, err := c.Complete(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestCompleteUnauthorizedFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "bad"}, quietPolicy(), nil, nil)
	if _, err := c.Complete(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (401 is not retryable)", calls)
	}
}

func TestCompleteJSONStripsFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{
				"content": "```json\n{\"title\":\"Apple Pie\"}\n```",
			}}},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, quietPolicy(), nil, nil)
	raw, err := c.CompleteJSON(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("CompleteJSON failed: %v", err)
	}
	var out struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if out.Title != "Apple Pie" {
		t.Errorf("title = %q", out.Title)
	}
}

func TestGenerateImageWritesFile(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/generations":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]string{{"url": srvURL + "/img.png"}},
			})
		case "/img.png":
			_, _ = w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	out := filepath.Join(t.TempDir(), "image-main.png")
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k"}, quietPolicy(), nil, nil)
	if err := c.GenerateImage(context.Background(), "a cake", out, ""); err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil || string(data) != "png-bytes" {
		t.Errorf("image file = %q, %v", data, err)
	}
}

func TestExtractJSONPayload(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"Here you go: {\"a\":1} hope it helps", `{"a":1}`},
		{"[1,2]", "[1,2]"},
		{"no json here", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractJSONPayload(tc.in); got != tc.want {
			t.Errorf("ExtractJSONPayload(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVisionExtractSendsDataURL(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "Apple Pie\n2 cups flour"}}},
		})
	}))
	defer srv.Close()

	img := filepath.Join(t.TempDir(), "card.png")
	if err := os.WriteFile(img, []byte{0x89, 0x50}, 0o644); err != nil {
		t.Fatal(err)
	}
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "k", VisionModel: "gpt-4o"}, quietPolicy(), nil, nil)
	text, err := c.ExtractText(context.Background(), img)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if !strings.Contains(text, "Apple Pie") {
		t.Errorf("text = %q", text)
	}
	if model := body["model"]; model != "gpt-4o" {
		t.Errorf("model = %v, want vision model", model)
	}
	enc, _ := json.Marshal(body)
	if !strings.Contains(string(enc), "data:image/png;base64,") {
		t.Error("request missing png data URL")
	}
}
