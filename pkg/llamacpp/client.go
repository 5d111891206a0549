// Package llamacpp implements client.VisionClient for a llama.cpp server's
// OpenAI-compatible /v1/chat/completions endpoint.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/client"
	"github.com/menta2k/photo-editor/pkg/types"
	"github.com/menta2k/photo-editor/pkg/upload"
)

const (
	// DefaultURL is used when NewClient gets an empty URL
	DefaultURL = "http://localhost:8080"

	completionsPath = "/v1/chat/completions"
	requestTimeout  = 5 * time.Minute
)

// Sampling holds per-call generation settings
type Sampling struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
}

var (
	querySampling    = Sampling{Temperature: 0.7, TopP: 0.9, MaxTokens: 2048}
	describeSampling = Sampling{Temperature: 0.2, TopP: 0.8, MaxTokens: 512}
)

// Client talks to a llama.cpp server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ client.VisionClient = (*Client)(nil)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Content in a reply is either a plain string or a list of parts
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// NewClient creates a client for serverURL, defaulting to DefaultURL
func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("invalid URL %q: only http and https are supported", serverURL)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

// SimpleQuery asks model about an image and returns the plain-text reply
func (c *Client) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return c.complete(ctx, model, prompt, imgB64, querySampling)
}

// DescribeImage asks model for a scene description of an image
func (c *Client) DescribeImage(ctx context.Context, model, prompt, imgB64 string) (*types.SceneDescription, error) {
	text, err := c.complete(ctx, model, prompt, imgB64, describeSampling)
	if err != nil {
		return nil, err
	}
	return client.ParseSceneDescription(text), nil
}

func (c *Client) complete(ctx context.Context, model, prompt, imgB64 string, s Sampling) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	parts := []contentPart{{Type: "text", Text: prompt}}
	if imgB64 != "" {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: dataURL(imgB64)},
		})
	}
	req := chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: parts}},
		Temperature: s.Temperature,
		TopP:        s.TopP,
		MaxTokens:   s.MaxTokens,
	}

	start := time.Now()
	body, err := c.post(ctx, completionsPath, req)
	if err != nil {
		return "", fmt.Errorf("llama.cpp request failed: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse llama.cpp response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in llama.cpp response")
	}
	logging.Logger().Debug("llama.cpp reply", "model", model, "elapsed", time.Since(start), "tokens", resp.Usage.TotalTokens)

	if text := replyText(resp.Choices[0].Message.Content); text != "" {
		return text, nil
	}
	return "", fmt.Errorf("empty response from llama.cpp server")
}

// replyText returns the string content, or the first non-empty text part
func replyText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		for _, p := range parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

// dataURL wraps base64 image bytes, labelled with their sniffed type
func dataURL(imgB64 string) string {
	mime := "image/jpeg"
	head := imgB64
	if len(head) > 64 {
		head = head[:64]
	}
	if raw, err := base64.StdEncoding.DecodeString(head[:len(head)/4*4]); err == nil {
		if t := upload.Sniff(raw); strings.HasPrefix(t, "image/") {
			mime = t
		}
	}
	return "data:" + mime + ";base64," + imgB64
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
