package photoeditor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/photo-editor/internal/config"
	"github.com/menta2k/photo-editor/pkg/edit"
	"github.com/menta2k/photo-editor/pkg/session"
	"github.com/menta2k/photo-editor/pkg/types"
)

// createTestImage creates a PNG-encoded test image with a bright center
func createTestImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newEditor(t *testing.T, mutate func(*config.Config)) *Editor {
	t.Helper()
	t.Setenv(config.APIKeyEnv, "")
	cfg := config.Default()
	cfg.Output.OutputDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	pe, err := NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig failed: %v", err)
	}
	return pe
}

func TestNew(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	pe, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if pe.Processor() == nil || pe.Uploads() == nil || pe.AI() == nil {
		t.Error("component is nil")
	}
	if pe.HasCredential() {
		t.Error("Expected no credential without env key")
	}
}

func TestNewWithInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Processing.DefaultQuality = 5
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestNewWithAssist(t *testing.T) {
	pe := newEditor(t, func(c *config.Config) {
		c.Assist.Enabled = true
		c.Assist.Backend = "llamacpp"
		c.Assist.URL = "http://localhost:8080"
	})
	if pe.AI() == nil {
		t.Error("Expected AI editor")
	}

	cfg := config.Default()
	cfg.Assist.Enabled = true
	cfg.Assist.URL = "not-a-url"
	if _, err := NewWithConfig(cfg); err == nil {
		t.Error("Expected error for bad assist URL")
	}
}

func TestSaveEmptyImage(t *testing.T) {
	pe := newEditor(t, nil)
	if _, err := pe.Save(context.Background(), types.Image{}, "", types.PNG, 1); err == nil {
		t.Error("Expected error saving an image without pixels")
	}
	entries, _ := os.ReadDir(pe.Config().Output.OutputDir)
	if len(entries) != 0 {
		t.Errorf("Nothing should be written, found %d entries", len(entries))
	}
}

func TestPipeline(t *testing.T) {
	pe := newEditor(t, nil)
	ctx := context.Background()

	img, err := pe.Accept(createTestImage(t, 400, 300), "image/png")
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	cropped, err := pe.Crop(ctx, img, types.CropRegion{X: 0, Y: 0, Width: 50, Height: 50, Unit: types.Percent})
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if cropped.Width != 200 || cropped.Height != 150 {
		t.Errorf("Expected 200x150, got %dx%d", cropped.Width, cropped.Height)
	}

	expanded, err := pe.Expand(ctx, cropped, 1)
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	if expanded.Width != 200 || expanded.Height != 200 {
		t.Errorf("Expected 200x200, got %dx%d", expanded.Width, expanded.Height)
	}

	path, err := pe.Save(ctx, expanded, "", types.JPEG, 0.8)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Dir(path) != pe.Config().Output.OutputDir {
		t.Errorf("Expected file in output dir, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("Saved file unreadable: %v", err)
	}
	if _, err := pe.Load(ctx, path); err != nil {
		t.Errorf("Reloading saved file failed: %v", err)
	}
}

func TestEditWithoutCredential(t *testing.T) {
	pe := newEditor(t, nil)
	img, err := pe.Accept(createTestImage(t, 40, 40), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	_, err = pe.Edit(context.Background(), edit.Enhance, img, "", nil, 0)
	if !errors.Is(err, types.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestDefaultOptions(t *testing.T) {
	pe := newEditor(t, func(c *config.Config) {
		c.Processing.DefaultFormat = "webp"
		c.Processing.DefaultQuality = 0.7
	})
	opts := pe.DefaultOptions()
	if opts.Format != types.WebP || opts.Quality != 0.7 || opts.Scale != 1 {
		t.Errorf("Unexpected options: %+v", opts)
	}
}

func TestNewSession(t *testing.T) {
	pe := newEditor(t, func(c *config.Config) {
		c.Session.DebounceMs = 0
		c.Mask.BrushSize = 7
	})
	s := pe.NewSession(nil)
	defer s.Close()

	img, err := pe.Accept(createTestImage(t, 40, 40), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	s.Load(img)
	if err := s.SetMode(session.Masking); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if s.Mask().Tool().Size != 7 {
		t.Errorf("Expected brush size 7, got %f", s.Mask().Tool().Size)
	}
	if err := pe.ApplyEdit(context.Background(), s, "remove it"); !errors.Is(err, types.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
	if s.Mode() != session.Masking {
		t.Errorf("Failed edit should keep the mode, got %v", s.Mode())
	}
}
