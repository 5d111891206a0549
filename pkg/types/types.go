package types

import (
	"fmt"
	"image"
	"strings"

	"github.com/google/uuid"
)

// Image is an encoded raster together with its decoded pixels.
// Images are never edited in place; every operation produces a new one.
type Image struct {
	ID       string      `json:"id"`
	Data     []byte      `json:"-"`
	Raster   image.Image `json:"-"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	ByteSize int         `json:"byte_size"`
	Type     string      `json:"type"`
}

// NewImage wraps encoded bytes and their decoded raster into an Image with a fresh ID
func NewImage(data []byte, raster image.Image, mimeType string) Image {
	b := raster.Bounds()
	return Image{
		ID:       uuid.NewString(),
		Data:     data,
		Raster:   raster,
		Width:    b.Dx(),
		Height:   b.Dy(),
		ByteSize: len(data),
		Type:     mimeType,
	}
}

// AspectRatio returns width/height, or 0 for an empty image
func (i Image) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}

// Format is an output encoding
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

// ParseFormat accepts png, jpeg, jpg and webp (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported format: %q", s)
}

// FormatFromMIME maps a MIME type to a Format
func FormatFromMIME(mimeType string) (Format, error) {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return PNG, nil
	case "image/jpeg", "image/jpg":
		return JPEG, nil
	case "image/webp":
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported MIME type: %q", mimeType)
}

// MIMEType returns the content type of the format
func (f Format) MIMEType() string {
	return "image/" + string(f)
}

// Extension returns the file extension without the dot
func (f Format) Extension() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

// Lossless reports whether quality is ignored for the format
func (f Format) Lossless() bool {
	return f == PNG
}

// Unit is the unit a CropRegion is expressed in
type Unit string

const (
	Pixels  Unit = "px"
	Percent Unit = "%"
)

// CropRegion is a rectangle in pixels or in percent (0-100) of the image size.
// Aspect is the locked width/height ratio; 0 means unconstrained.
type CropRegion struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   Unit    `json:"unit"`
	Aspect float64 `json:"aspect,omitempty"`
}

// ToPixels resolves the region against an image of the given size
func (r CropRegion) ToPixels(imgW, imgH int) CropRegion {
	if r.Unit != Percent {
		r.Unit = Pixels
		return r
	}
	fw, fh := float64(imgW), float64(imgH)
	return CropRegion{
		X:      r.X * fw / 100,
		Y:      r.Y * fh / 100,
		Width:  r.Width * fw / 100,
		Height: r.Height * fh / 100,
		Unit:   Pixels,
		Aspect: r.Aspect,
	}
}

// Point is a position in image-pixel space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Limits for ProcessingOptions
const (
	MinScale   = 0.1
	MaxScale   = 4.0
	MinQuality = 0.1
	MaxQuality = 1.0
)

// ProcessingOptions controls a single transform invocation
type ProcessingOptions struct {
	Scale float64 `json:"scale"`
	// ScaleY is the vertical factor used when MaintainAspect is false.
	// Zero means "same as Scale".
	ScaleY         float64     `json:"scale_y,omitempty"`
	MaintainAspect bool        `json:"maintain_aspect"`
	Crop           *CropRegion `json:"crop,omitempty"`
	Format         Format      `json:"format"`
	Quality        float64     `json:"quality"`
}

// DefaultProcessingOptions returns identity options encoding to PNG
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		Scale:          1,
		MaintainAspect: true,
		Format:         PNG,
		Quality:        0.9,
	}
}

// Factors returns the horizontal and vertical scale factors
func (o ProcessingOptions) Factors() (float64, float64) {
	if o.MaintainAspect || o.ScaleY == 0 {
		return o.Scale, o.Scale
	}
	return o.Scale, o.ScaleY
}

// Validate checks ranges and the format
func (o ProcessingOptions) Validate() error {
	if o.Scale < MinScale || o.Scale > MaxScale {
		return fmt.Errorf("scale must be between %.1f and %.1f, got %g", MinScale, MaxScale, o.Scale)
	}
	if !o.MaintainAspect && o.ScaleY != 0 && (o.ScaleY < MinScale || o.ScaleY > MaxScale) {
		return fmt.Errorf("scale_y must be between %.1f and %.1f, got %g", MinScale, MaxScale, o.ScaleY)
	}
	if o.Quality < MinQuality || o.Quality > MaxQuality {
		return fmt.Errorf("quality must be between %.1f and %.1f, got %g", MinQuality, MaxQuality, o.Quality)
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.Crop != nil && (o.Crop.Width <= 0 || o.Crop.Height <= 0) {
		return fmt.Errorf("crop region must have positive size, got %gx%g", o.Crop.Width, o.Crop.Height)
	}
	return nil
}
