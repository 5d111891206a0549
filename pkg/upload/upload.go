// Package upload is the entry boundary of the editor: it accepts JPEG, PNG and
// WebP files up to a size limit and decodes them into types.Image.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/internal/utils"
	"github.com/menta2k/photo-editor/pkg/processing"
	"github.com/menta2k/photo-editor/pkg/types"
)

// DefaultMaxBytes is the largest accepted upload (10 MiB)
const DefaultMaxBytes = 10 << 20

// Config holds upload limits
type Config struct {
	MaxBytes     int64
	AllowedTypes []string
	MinImageSize int
	FetchTimeout time.Duration
}

// DefaultConfig returns the stock limits
func DefaultConfig() Config {
	return Config{
		MaxBytes:     DefaultMaxBytes,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		MinImageSize: 1,
		FetchTimeout: 30 * time.Second,
	}
}

// Validator checks and decodes uploaded files
type Validator struct {
	config Config
	client *http.Client
}

// New creates a Validator with default limits
func New() *Validator {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Validator with custom limits
func NewWithConfig(config Config) *Validator {
	def := DefaultConfig()
	if config.MaxBytes <= 0 {
		config.MaxBytes = def.MaxBytes
	}
	if len(config.AllowedTypes) == 0 {
		config.AllowedTypes = def.AllowedTypes
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = def.FetchTimeout
	}
	return &Validator{
		config: config,
		client: &http.Client{Timeout: config.FetchTimeout},
	}
}

// Check validates the declared MIME type and size before any bytes are read.
// An empty declared type is left to content sniffing.
func (v *Validator) Check(declaredType string, size int64) error {
	if declaredType != "" && !v.allowed(declaredType) {
		return fmt.Errorf("%w: unsupported file type %s, please upload a JPEG, PNG or WebP image", types.ErrInvalidUpload, declaredType)
	}
	if size > v.config.MaxBytes {
		return fmt.Errorf("%w: file is %s, the limit is %s", types.ErrInvalidUpload,
			utils.FormatFileSize(size), utils.FormatFileSize(v.config.MaxBytes))
	}
	return nil
}

// Accept validates data and decodes it. The sniffed content type must be
// allowed as well as the declared one.
func (v *Validator) Accept(data []byte, declaredType string) (types.Image, error) {
	declaredType = normalizeType(declaredType)
	if err := v.Check(declaredType, int64(len(data))); err != nil {
		return types.Image{}, err
	}
	if len(data) == 0 {
		return types.Image{}, fmt.Errorf("%w: file is empty", types.ErrInvalidUpload)
	}

	sniffed := Sniff(data)
	if !v.allowed(sniffed) {
		return types.Image{}, fmt.Errorf("%w: file content is %s, please upload a JPEG, PNG or WebP image", types.ErrInvalidUpload, sniffed)
	}
	if declaredType != "" && declaredType != sniffed {
		logging.Logger().Debug("declared type differs from content", "declared", declaredType, "sniffed", sniffed)
	}

	img, err := processing.DecodeImage(data, sniffed)
	if err != nil {
		return types.Image{}, fmt.Errorf("%w: failed to decode image: %v", types.ErrInvalidUpload, err)
	}
	if img.Width < v.config.MinImageSize || img.Height < v.config.MinImageSize {
		return types.Image{}, fmt.Errorf("%w: image too small: %dx%d (minimum: %d)",
			types.ErrInvalidUpload, img.Width, img.Height, v.config.MinImageSize)
	}

	logging.Logger().Info("upload accepted",
		"id", img.ID, "type", img.Type, "width", img.Width, "height", img.Height, "bytes", img.ByteSize)
	return img, nil
}

// Read accepts everything r yields, reading at most one byte past the limit
func (v *Validator) Read(r io.Reader, declaredType string) (types.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, v.config.MaxBytes+1))
	if err != nil {
		return types.Image{}, fmt.Errorf("failed to read upload: %w", err)
	}
	return v.Accept(data, declaredType)
}

// Open accepts a file from disk; the declared type comes from its extension
func (v *Validator) Open(path string) (types.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Image{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		if err := v.Check("", info.Size()); err != nil {
			return types.Image{}, err
		}
	}
	return v.Read(f, typeFromExtension(path))
}

// Fetch downloads an image over http(s) and accepts it
func (v *Validator) Fetch(ctx context.Context, imageURL string) (types.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return types.Image{}, fmt.Errorf("invalid URL: %v", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return types.Image{}, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return types.Image{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", "photo-editor/1.0")

	resp, err := v.client.Do(req)
	if err != nil {
		return types.Image{}, fmt.Errorf("failed to download image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Image{}, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	if resp.ContentLength > 0 {
		if err := v.Check("", resp.ContentLength); err != nil {
			return types.Image{}, err
		}
	}
	return v.Read(resp.Body, resp.Header.Get("Content-Type"))
}

// Load accepts either a file path or an http(s) URL
func (v *Validator) Load(ctx context.Context, source string) (types.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return v.Fetch(ctx, source)
	}
	return v.Open(source)
}

// Sniff detects the content type of data, recognising WebP explicitly
func Sniff(data []byte) string {
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	return normalizeType(http.DetectContentType(data))
}

func (v *Validator) allowed(mimeType string) bool {
	return slices.Contains(v.config.AllowedTypes, normalizeType(mimeType))
}

func normalizeType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "image/jpg" {
		t = "image/jpeg"
	}
	return t
}

func typeFromExtension(path string) string {
	f, err := types.ParseFormat(utils.GetFileExtension(path))
	if err != nil {
		return ""
	}
	return f.MIMEType()
}
