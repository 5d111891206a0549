package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"max bytes", func(c *Config) { c.Upload.MaxBytes = 0 }, "upload.max_bytes"},
		{"gif allowed", func(c *Config) { c.Upload.AllowedTypes = []string{"image/gif"} }, "upload.allowed_types"},
		{"format", func(c *Config) { c.Processing.DefaultFormat = "bmp" }, "processing.default_format"},
		{"quality", func(c *Config) { c.Processing.DefaultQuality = 0 }, "processing.default_quality"},
		{"fill", func(c *Config) { c.Processing.ExpandFill = "white" }, "processing.expand_fill"},
		{"brush", func(c *Config) { c.Mask.BrushSize = 0 }, "mask.brush_size"},
		{"initial fill", func(c *Config) { c.Cropper.InitialFill = 1.5 }, "cropper.initial_fill"},
		{"backend", func(c *Config) { c.Assist.Enabled = true; c.Assist.Backend = "gpt" }, "assist.backend"},
	}
	for _, tc := range cases {
		c := Default()
		tc.mutate(c)
		err := c.Validate()
		if err == nil || !strings.Contains(err.Error(), tc.field) {
			t.Errorf("%s: expected error naming %s, got %v", tc.name, tc.field, err)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "cfg", "config.json")

	c := Default()
	c.Processing.DefaultFormat = "webp"
	c.Editor.APIKey = "sk-secret"
	if err := c.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "sk-secret") {
		t.Error("API key must not be written to disk")
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Processing.DefaultFormat != "webp" {
		t.Errorf("Expected webp, got %s", loaded.Processing.DefaultFormat)
	}
	if c.Editor.APIKey != "sk-secret" {
		t.Error("SaveToFile should not modify the receiver")
	}
}

func TestLoadKeepsDefaultsAndEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "sk-env")
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"session": {"debounce_ms": 100}}`), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Session.DebounceMs != 100 || c.Mask.BrushSize != 20 {
		t.Errorf("Unexpected merge result: %+v %+v", c.Session, c.Mask)
	}
	if c.Editor.APIKey != "sk-env" {
		t.Errorf("Expected key from env, got %q", c.Editor.APIKey)
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#ff000080": {255, 0, 0, 128},
		"#00ff00":   {0, 255, 0, 255},
		"#fff":      {255, 255, 255, 255},
	}
	for in, want := range cases {
		got, err := ParseHexColor(in)
		if err != nil || got != want {
			t.Errorf("ParseHexColor(%q) = %v, %v", in, got, err)
		}
	}
	for _, bad := range []string{"", "#12", "#gggggg", "red"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
