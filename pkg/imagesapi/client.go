// Package imagesapi implements client.ImageEditor against an OpenAI-compatible
// /v1/images/edits endpoint.
package imagesapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/client"
	"github.com/menta2k/photo-editor/pkg/types"
)

// APIKeyEnv is read when no key is configured
const APIKeyEnv = "PHOTO_EDITOR_API_KEY"

// Config holds connection settings for the images API
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// DefaultConfig returns settings for the public OpenAI endpoint
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.openai.com",
		Model:   "gpt-image-1",
		Timeout: 5 * time.Minute,
	}
}

// Client sends edit requests to the images API
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ client.ImageEditor = (*Client)(nil)

// EditResponse is the JSON body returned by /v1/images/edits
type EditResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
}

// ImageData is one generated image
type ImageData struct {
	B64JSON       string `json:"b64_json,omitempty"`
	URL           string `json:"url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewClient creates a client. An empty APIKey falls back to $PHOTO_EDITOR_API_KEY;
// a missing key is only reported when a request is made.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(APIKeyEnv)
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// HasCredential reports whether an API key is configured
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// RequestEdit uploads image with prompt and returns the first edited image.
// It is not retried.
func (c *Client) RequestEdit(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	if !c.HasCredential() {
		return nil, fmt.Errorf("%w: set %s or editor.api_key", types.ErrMissingCredential, APIKeyEnv)
	}

	body, contentType, err := c.buildForm(image, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRemoteEditFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/edits", body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", types.ErrRemoteEditFailed, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send request: %v", types.ErrRemoteEditFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", types.ErrRemoteEditFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned status %d: %s", types.ErrRemoteEditFailed, resp.StatusCode, errorMessage(respBody))
	}

	var parsed EditResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", types.ErrRemoteEditFailed, err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%w: no image in response", types.ErrRemoteEditFailed)
	}

	out, err := c.imageBytes(ctx, parsed.Data[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRemoteEditFailed, err)
	}

	logging.Logger().Info("remote edit done",
		"model", c.model, "elapsed", time.Since(start), "bytes", len(out))
	return out, nil
}

// imageBytes returns the inline image, or downloads it when the service
// answered with a URL
func (c *Client) imageBytes(ctx context.Context, d ImageData) ([]byte, error) {
	switch {
	case d.B64JSON != "":
		out, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %v", err)
		}
		return out, nil
	case d.URL != "":
		return c.download(ctx, d.URL)
	}
	return nil, fmt.Errorf("no image in response")
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, error) {
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return nil, fmt.Errorf("unsupported image URL %q", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %v", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("downloaded image is empty")
	}
	return body, nil
}

func (c *Client) buildForm(image []byte, prompt string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="image.png"`)
	h.Set("Content-Type", http.DetectContentType(image))
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}

	fields := [][2]string{
		{"prompt", prompt},
		{"model", c.model},
		{"n", "1"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

const maxErrorRunes = 200

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return truncate(strings.TrimSpace(string(body)), maxErrorRunes)
}
