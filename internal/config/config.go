package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// APIKeyEnv overrides editor.api_key when set
const APIKeyEnv = "PHOTO_EDITOR_API_KEY"

// Config holds the application configuration
type Config struct {
	Upload     UploadConfig     `json:"upload"`
	Processing ProcessingConfig `json:"processing"`
	Cropper    CropperConfig    `json:"cropper"`
	Mask       MaskConfig       `json:"mask"`
	Session    SessionConfig    `json:"session"`
	Editor     EditorConfig     `json:"editor"`
	Assist     AssistConfig     `json:"assist"`
	Output     OutputConfig     `json:"output"`
}

// UploadConfig holds limits for accepted files
type UploadConfig struct {
	MaxBytes       int64    `json:"max_bytes"`
	AllowedTypes   []string `json:"allowed_types"`
	MinImageSize   int      `json:"min_image_size"`
	FetchTimeoutMs int      `json:"fetch_timeout_ms"`
}

// ProcessingConfig holds transform defaults and limits
type ProcessingConfig struct {
	DefaultFormat    string  `json:"default_format"`
	DefaultQuality   float64 `json:"default_quality"`
	MaxSurfacePixels int64   `json:"max_surface_pixels"`
	EditMaxDim       int     `json:"edit_max_dim"`
	ExpandFill       string  `json:"expand_fill"`
}

// CropperConfig holds crop overlay settings
type CropperConfig struct {
	MinSize     float64 `json:"min_size"`
	HandleSize  float64 `json:"handle_size"`
	InitialFill float64 `json:"initial_fill"`
	Aspect      string  `json:"aspect"`
}

// MaskConfig holds the default brush
type MaskConfig struct {
	BrushSize  float64 `json:"brush_size"`
	BrushColor string  `json:"brush_color"`
}

// SessionConfig holds preview behaviour
type SessionConfig struct {
	DebounceMs int  `json:"debounce_ms"`
	DropStale  bool `json:"drop_stale"`
}

// EditorConfig holds the remote AI editor connection
type EditorConfig struct {
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key,omitempty"`
	TimeoutMs int    `json:"timeout_ms"`
}

// AssistConfig holds the optional vision backend used for prompt assist
type AssistConfig struct {
	Enabled bool   `json:"enabled"`
	Backend string `json:"backend"`
	URL     string `json:"url"`
	Model   string `json:"model"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	OutputDir string `json:"output_dir"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Upload: UploadConfig{
			MaxBytes:       10 << 20,
			AllowedTypes:   []string{"image/jpeg", "image/png", "image/webp"},
			MinImageSize:   1,
			FetchTimeoutMs: 30000,
		},
		Processing: ProcessingConfig{
			DefaultFormat:    "png",
			DefaultQuality:   0.9,
			MaxSurfacePixels: 16384 * 16384,
			EditMaxDim:       2048,
			ExpandFill:       "#ffffff",
		},
		Cropper: CropperConfig{
			MinSize:     50,
			HandleSize:  12,
			InitialFill: 0.8,
			Aspect:      "free",
		},
		Mask: MaskConfig{
			BrushSize:  20,
			BrushColor: "#ff000080",
		},
		Session: SessionConfig{
			DebounceMs: 300,
			DropStale:  true,
		},
		Editor: EditorConfig{
			BaseURL:   "https://api.openai.com",
			Model:     "gpt-image-1",
			TimeoutMs: 300000,
		},
		Assist: AssistConfig{
			Enabled: false,
			Backend: "ollama",
			URL:     "http://localhost:11434",
			Model:   "llava",
		},
		Output: OutputConfig{
			OutputDir: "./output",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Missing fields keep
// their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.ApplyEnv()

	return config, nil
}

// ApplyEnv applies environment overrides
func (c *Config) ApplyEnv() {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		c.Editor.APIKey = key
	}
}

// SaveToFile saves configuration to a JSON file. The API key is never written.
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *c
	out.Editor.APIKey = ""
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("upload.allowed_types cannot be empty")
	}
	for _, t := range c.Upload.AllowedTypes {
		switch t {
		case "image/jpeg", "image/png", "image/webp":
		default:
			return fmt.Errorf("upload.allowed_types: unsupported type %q", t)
		}
	}

	switch strings.ToLower(c.Processing.DefaultFormat) {
	case "png", "jpeg", "jpg", "webp":
	default:
		return fmt.Errorf("processing.default_format must be png, jpeg or webp")
	}
	if c.Processing.DefaultQuality < 0.1 || c.Processing.DefaultQuality > 1 {
		return fmt.Errorf("processing.default_quality must be between 0.1 and 1.0")
	}
	if c.Processing.MaxSurfacePixels <= 0 {
		return fmt.Errorf("processing.max_surface_pixels must be positive")
	}
	if c.Processing.EditMaxDim < 0 {
		return fmt.Errorf("processing.edit_max_dim cannot be negative")
	}
	if _, err := ParseHexColor(c.Processing.ExpandFill); err != nil {
		return fmt.Errorf("processing.expand_fill: %w", err)
	}

	if c.Cropper.MinSize < 0 {
		return fmt.Errorf("cropper.min_size cannot be negative")
	}
	if c.Cropper.InitialFill <= 0 || c.Cropper.InitialFill > 1 {
		return fmt.Errorf("cropper.initial_fill must be in (0, 1]")
	}

	if c.Mask.BrushSize <= 0 {
		return fmt.Errorf("mask.brush_size must be positive")
	}
	if _, err := ParseHexColor(c.Mask.BrushColor); err != nil {
		return fmt.Errorf("mask.brush_color: %w", err)
	}

	if c.Session.DebounceMs < 0 {
		return fmt.Errorf("session.debounce_ms cannot be negative")
	}

	if c.Assist.Enabled {
		switch c.Assist.Backend {
		case "ollama", "llamacpp":
		default:
			return fmt.Errorf("assist.backend must be ollama or llamacpp")
		}
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "photo-editor", "config.json")
}
