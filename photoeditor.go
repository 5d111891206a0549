// Package photoeditor is the entry point of the photo editor library.
//
// It wires the configuration into the upload boundary, the raster engines,
// editing sessions and the AI editor.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		photoeditor "github.com/menta2k/photo-editor"
//		"github.com/menta2k/photo-editor/pkg/types"
//	)
//
//	func main() {
//		pe, err := photoeditor.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//		ctx := context.Background()
//
//		img, err := pe.Load(ctx, "photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		opts := types.DefaultProcessingOptions()
//		opts.Scale = 0.5
//		out, err := pe.Transform(ctx, img, opts)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if _, err := pe.Save(ctx, out, "photo_small.png", types.PNG, 1); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
//  1. Upload (pkg/upload): accepts JPEG, PNG and WebP up to 10 MiB
//  2. Processing (pkg/processing): scale, crop, canvas expansion, mask compositing, export
//  3. Cropper and Mask (pkg/cropper, pkg/mask): pointer-driven crop region and brush strokes
//  4. Session (pkg/session): edit modes, debounced previews, pointer capture
//  5. Edit (pkg/edit): AI enhance, inpaint and outpaint through an images API
package photoeditor

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/menta2k/photo-editor/internal/config"
	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/internal/utils"
	"github.com/menta2k/photo-editor/pkg/client"
	"github.com/menta2k/photo-editor/pkg/cropper"
	"github.com/menta2k/photo-editor/pkg/edit"
	"github.com/menta2k/photo-editor/pkg/imagesapi"
	"github.com/menta2k/photo-editor/pkg/llamacpp"
	"github.com/menta2k/photo-editor/pkg/mask"
	"github.com/menta2k/photo-editor/pkg/ollama"
	"github.com/menta2k/photo-editor/pkg/processing"
	"github.com/menta2k/photo-editor/pkg/session"
	"github.com/menta2k/photo-editor/pkg/types"
	"github.com/menta2k/photo-editor/pkg/upload"
)

// Version of the photo editor library
const Version = "1.0.0"

// SetLogger installs the structured logger used by every package
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Editor provides a high-level interface over the editing pipeline
type Editor struct {
	config  *config.Config
	uploads *upload.Validator
	proc    *processing.Processor
	ai      *edit.Editor
	remote  *imagesapi.Client
}

// New creates an Editor with default configuration. The API key is taken
// from the environment.
func New() (*Editor, error) {
	cfg := config.Default()
	cfg.ApplyEnv()
	return NewWithConfig(cfg)
}

// NewWithConfig creates an Editor from cfg
func NewWithConfig(cfg *config.Config) (*Editor, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	proc := processing.NewProcessorWithConfig(processing.Config{
		MaxSurfacePixels: cfg.Processing.MaxSurfacePixels,
		EditMaxDim:       cfg.Processing.EditMaxDim,
	})
	uploads := upload.NewWithConfig(upload.Config{
		MaxBytes:     cfg.Upload.MaxBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
		MinImageSize: cfg.Upload.MinImageSize,
		FetchTimeout: time.Duration(cfg.Upload.FetchTimeoutMs) * time.Millisecond,
	})
	remote := imagesapi.NewClient(imagesapi.Config{
		BaseURL: cfg.Editor.BaseURL,
		Model:   cfg.Editor.Model,
		APIKey:  cfg.Editor.APIKey,
		Timeout: time.Duration(cfg.Editor.TimeoutMs) * time.Millisecond,
	})

	var opts []edit.Option
	if cfg.Assist.Enabled {
		vc, err := newVisionClient(cfg.Assist)
		if err != nil {
			return nil, err
		}
		opts = append(opts, edit.WithAssist(vc, cfg.Assist.Model))
	}

	return &Editor{
		config:  cfg,
		uploads: uploads,
		proc:    proc,
		ai:      edit.NewEditor(remote, proc, opts...),
		remote:  remote,
	}, nil
}

func newVisionClient(cfg config.AssistConfig) (client.VisionClient, error) {
	switch cfg.Backend {
	case "ollama":
		c, err := ollama.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown assist backend: %s", cfg.Backend)
}

// Config returns the active configuration
func (e *Editor) Config() *config.Config { return e.config }

// Processor returns the raster engine
func (e *Editor) Processor() *processing.Processor { return e.proc }

// Uploads returns the upload validator
func (e *Editor) Uploads() *upload.Validator { return e.uploads }

// AI returns the AI editor
func (e *Editor) AI() *edit.Editor { return e.ai }

// HasCredential reports whether AI edits can authenticate
func (e *Editor) HasCredential() bool { return e.remote.HasCredential() }

// Load reads an image from a file path or http(s) URL
func (e *Editor) Load(ctx context.Context, source string) (types.Image, error) {
	return e.uploads.Load(ctx, source)
}

// Accept validates uploaded bytes
func (e *Editor) Accept(data []byte, declaredType string) (types.Image, error) {
	return e.uploads.Accept(data, declaredType)
}

// Transform scales and optionally crops img
func (e *Editor) Transform(ctx context.Context, img types.Image, opts types.ProcessingOptions) (types.Image, error) {
	return e.proc.Transform(ctx, img, opts)
}

// Crop cuts region out of img at its native scale
func (e *Editor) Crop(ctx context.Context, img types.Image, region types.CropRegion) (types.Image, error) {
	opts := e.DefaultOptions()
	opts.Crop = &region
	return e.proc.Transform(ctx, img, opts)
}

// Expand pads img to ratio with the configured fill color
func (e *Editor) Expand(ctx context.Context, img types.Image, ratio float64) (types.Image, error) {
	return e.proc.Expand(ctx, img, ratio, e.fill())
}

// Edit runs an AI edit. Strokes are only used by Inpaint; ratio only by Outpaint.
func (e *Editor) Edit(ctx context.Context, op edit.Operation, img types.Image, prompt string, strokes []mask.Stroke, ratio float64) (types.Image, error) {
	return e.ai.Apply(ctx, edit.Request{
		Op:          op,
		Prompt:      prompt,
		Image:       img,
		Strokes:     strokes,
		TargetRatio: ratio,
		Fill:        e.fill(),
	})
}

// Export encodes img and returns it with its download file name
func (e *Editor) Export(ctx context.Context, img types.Image, format types.Format, quality float64) (types.Image, string, error) {
	return e.proc.Export(ctx, img, format, quality)
}

// Save exports img and writes it to path. An empty path writes the export
// file name into the configured output directory. The written path is returned.
func (e *Editor) Save(ctx context.Context, img types.Image, path string, format types.Format, quality float64) (string, error) {
	out, name, err := e.proc.Export(ctx, img, format, quality)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = filepath.Join(e.config.Output.OutputDir, name)
	}
	if err := utils.WriteFile(path, out.Data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	logging.Logger().Info("image saved", "path", path, "size", utils.FormatFileSize(int64(out.ByteSize)))
	return path, nil
}

// DefaultOptions returns identity processing options using the configured
// output format and quality
func (e *Editor) DefaultOptions() types.ProcessingOptions {
	opts := types.DefaultProcessingOptions()
	if f, err := types.ParseFormat(e.config.Processing.DefaultFormat); err == nil {
		opts.Format = f
	}
	opts.Quality = e.config.Processing.DefaultQuality
	return opts
}

// NewSession starts an editing session using the configured limits
func (e *Editor) NewSession(onPreview func(types.Image)) *session.Session {
	sc := session.DefaultConfig()
	sc.Debounce = time.Duration(e.config.Session.DebounceMs) * time.Millisecond
	sc.DropStale = e.config.Session.DropStale
	sc.Crop = cropper.Config{
		MinSize:     e.config.Cropper.MinSize,
		HandleSize:  e.config.Cropper.HandleSize,
		InitialFill: e.config.Cropper.InitialFill,
	}
	if r, ok := cropper.AspectRatioByName(e.config.Cropper.Aspect); ok {
		sc.CropAspect = r.Value()
	}
	sc.Tool = mask.Tool{Size: e.config.Mask.BrushSize, Color: mask.DefaultColor}
	if c, err := config.ParseHexColor(e.config.Mask.BrushColor); err == nil {
		sc.Tool.Color = c
	}
	sc.Fill = e.fill()
	sc.OnPreview = onPreview
	return session.New(e.proc, sc)
}

// ApplyEdit runs the AI edit matching the session's mode
func (e *Editor) ApplyEdit(ctx context.Context, s *session.Session, prompt string) error {
	return s.ApplyEdit(ctx, e.ai, prompt)
}

func (e *Editor) fill() color.Color {
	c, err := config.ParseHexColor(e.config.Processing.ExpandFill)
	if err != nil {
		return processing.DefaultFill
	}
	return c
}
