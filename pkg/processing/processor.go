package processing

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"math"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/types"
)

// DefaultMaxSurfacePixels matches the largest canvas area browsers allow (16384²)
const DefaultMaxSurfacePixels = 16384 * 16384

// Config holds processor limits
type Config struct {
	// MaxSurfacePixels caps width*height of any drawing surface
	MaxSurfacePixels int64
	// EditMaxDim is the long-side limit for images sent to the AI backend, 0 = no limit
	EditMaxDim int
}

// DefaultConfig returns the stock processor limits
func DefaultConfig() Config {
	return Config{
		MaxSurfacePixels: DefaultMaxSurfacePixels,
		EditMaxDim:       2048,
	}
}

// Processor handles image processing operations
type Processor struct {
	config Config
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return NewProcessorWithConfig(DefaultConfig())
}

// NewProcessorWithConfig creates a processor with custom limits
func NewProcessorWithConfig(config Config) *Processor {
	if config.MaxSurfacePixels <= 0 {
		config.MaxSurfacePixels = DefaultMaxSurfacePixels
	}
	return &Processor{config: config}
}

// Decode decodes png, jpeg or webp bytes, applying EXIF orientation
func Decode(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}
	// Fallback: explicit WebP decode
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// DecodeImage decodes bytes into an Image, keeping the declared MIME type
func DecodeImage(data []byte, mimeType string) (types.Image, error) {
	raster, err := Decode(data)
	if err != nil {
		return types.Image{}, err
	}
	return types.NewImage(data, raster, mimeType), nil
}

// Encode encodes img in the given format. Quality is in [0.1, 1.0] and is
// ignored for PNG.
func Encode(img image.Image, format types.Format, quality float64) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image to encode", types.ErrEncodingFailed)
	}
	var buf bytes.Buffer
	q := qualityPercent(quality)

	var err error
	switch format {
	case types.PNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case types.JPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q))
	case types.WebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(q)})
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", types.ErrEncodingFailed, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEncodingFailed, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: encoder produced no output", types.ErrEncodingFailed)
	}
	return buf.Bytes(), nil
}

// Export re-encodes img for download and returns it with a timestamped file name
func (p *Processor) Export(ctx context.Context, img types.Image, format types.Format, quality float64) (types.Image, string, error) {
	if err := ctx.Err(); err != nil {
		return types.Image{}, "", err
	}
	if img.Raster == nil {
		return types.Image{}, "", fmt.Errorf("export: image has no raster")
	}
	if quality < types.MinQuality || quality > types.MaxQuality {
		return types.Image{}, "", fmt.Errorf("quality must be between %.1f and %.1f, got %g", types.MinQuality, types.MaxQuality, quality)
	}
	data, err := Encode(img.Raster, format, quality)
	if err != nil {
		return types.Image{}, "", err
	}
	out := types.NewImage(data, img.Raster, format.MIMEType())
	return out, ExportFilename(now(), format), nil
}

// PrepareForEdit returns PNG bytes for the AI backend, downscaled so the long
// side does not exceed the configured limit.
func (p *Processor) PrepareForEdit(img types.Image) ([]byte, error) {
	src := downscale(img.Raster, p.config.EditMaxDim)
	if src == img.Raster && img.Type == types.PNG.MIMEType() && len(img.Data) > 0 {
		return img.Data, nil
	}
	return Encode(src, types.PNG, 1)
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	f, err := types.ParseFormat(format)
	if err != nil || f == types.WebP {
		f = types.JPEG
	}
	data, err := Encode(downscale(img, maxDim), f, float64(quality)/100)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func downscale(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	logging.Logger().Debug("downscaling image for model", "width", w, "height", h, "max", maxDim)
	if w >= h {
		return imaging.Resize(img, maxDim, 0, imaging.Lanczos)
	}
	return imaging.Resize(img, 0, maxDim, imaging.Lanczos)
}

func qualityPercent(q float64) int {
	p := int(math.Round(clamp(q, types.MinQuality, types.MaxQuality) * 100))
	if p < 1 {
		p = 1
	}
	return p
}

// Helper functions
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
