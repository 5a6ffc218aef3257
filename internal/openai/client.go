// Package openai is a thin client for the chat, vision, and image endpoints
// used by the content pipeline. Every request runs through the retry wrapper
// and is recorded in the per-run API call log.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tboyle/recipe-press/internal/common"
	"github.com/tboyle/recipe-press/internal/retry"
	"github.com/tboyle/recipe-press/internal/runlog"
	"log/slog"
)

// Config holds the client settings.
type Config struct {
	BaseURL     string
	Model       string
	VisionModel string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
}

// Client talks to the OpenAI-compatible API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	policy     retry.Policy
	calls      *runlog.RunLogs
	log        *slog.Logger
}

// NewClient constructs a client. calls may be nil when no API log is wanted.
func NewClient(cfg Config, policy retry.Policy, calls *runlog.RunLogs, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		calls:      calls,
		log:        logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float32           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete issues a plain-text chat completion.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	return c.chat(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
	}, "llm.complete")
}

// CompleteJSON issues a JSON-mode chat completion and returns the decoded
// payload bytes, tolerating code fences and surrounding prose.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) ([]byte, error) {
	content, err := c.chat(ctx, chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    c.cfg.Temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	}, "llm.complete_json")
	if err != nil {
		return nil, err
	}
	payload := ExtractJSONPayload(content)
	if payload == "" {
		return nil, fmt.Errorf("llm.complete_json: no JSON in response")
	}
	return []byte(payload), nil
}

// ExtractText runs vision OCR over the image at path and returns the raw text.
func (c *Client) ExtractText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", common.Permanent(fmt.Errorf("read image: %w", err))
	}
	mime := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mime = "image/png"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)

	content, err := c.chat(ctx, chatRequest{
		Model: c.cfg.VisionModel,
		Messages: []chatMessage{{
			Role: "user",
			Content: []map[string]any{
				{"type": "text", "text": "Extract all the text from this recipe image. Return only the raw text content, preserving the original formatting and structure. Do not add any commentary or interpretation."},
				{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
			},
		}},
		MaxTokens: 2000,
	}, "llm.vision_extract")
	if err != nil {
		return "", err
	}
	c.log.Info("llm.vision_extract.ok", "path", filepath.Base(path), "text_len", len(content))
	return content, nil
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage produces one image for prompt and writes it to outPath.
func (c *Client) GenerateImage(ctx context.Context, prompt, outPath, size string) error {
	if size == "" {
		size = "1024x1024"
	}
	rid := uuid.New().String()
	start := time.Now()
	var out imageResponse
	err := retry.Do(ctx, c.log, c.policy, "llm.generate_image", func(ctx context.Context) error {
		raw, err := c.post(ctx, rid, "/images/generations", imageRequest{Prompt: prompt, N: 1, Size: size})
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, &out)
	})
	if err != nil {
		return err
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return fmt.Errorf("llm.generate_image: empty response")
	}
	if err := c.download(ctx, rid, out.Data[0].URL, outPath); err != nil {
		return err
	}
	c.log.Info("llm.generate_image.ok", "path", outPath, "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

func (c *Client) chat(ctx context.Context, req chatRequest, op string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Debug(op+".start", "req_id", rid, "model", req.Model, "temp", req.Temperature)

	var cc chatResponse
	err := retry.Do(ctx, c.log, c.policy, op, func(ctx context.Context) error {
		raw, err := c.post(ctx, rid, "/chat/completions", req)
		if err != nil {
			return err
		}
		cc = chatResponse{}
		if err := json.Unmarshal(raw, &cc); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if cc.Error != nil {
			return common.Permanent(fmt.Errorf("api error: %s", cc.Error.Message))
		}
		if len(cc.Choices) == 0 {
			return common.Transient(fmt.Errorf("no choices in response"))
		}
		return nil
	})
	if err != nil {
		c.log.Error(op+".failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.log.Debug(op+".ok", "req_id", rid, "content_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
	return content, nil
}

func (c *Client) post(ctx context.Context, rid, endpoint string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, common.Permanent(fmt.Errorf("marshal request: %w", err))
	}
	url := strings.TrimRight(c.cfg.BaseURL, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, common.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.calls.APICall(rid, http.MethodPost, url, 0, time.Since(start), http.Header{})
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}()
	c.calls.APICall(rid, http.MethodPost, url, resp.StatusCode, time.Since(start), resp.Header)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryAfter, _ := retry.ParseRetryAfter(resp.Header.Get("Retry-After"))
		statusErr := &retry.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: retryAfter,
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, common.Permanent(statusErr)
		}
		return nil, statusErr
	}
	return raw, nil
}

func (c *Client) download(ctx context.Context, rid, url, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	c.calls.APICall(rid, http.MethodGet, url, resp.StatusCode, time.Since(start), resp.Header)
	if resp.StatusCode != http.StatusOK {
		return &retry.HTTPStatusError{StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	return os.WriteFile(outPath, data, 0o644)
}
