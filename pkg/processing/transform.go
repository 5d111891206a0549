package processing

import (
	"context"
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/types"
)

// Transform crops then scales img according to opts and encodes the result.
// The input image is never modified.
func (p *Processor) Transform(ctx context.Context, img types.Image, opts types.ProcessingOptions) (types.Image, error) {
	if err := ctx.Err(); err != nil {
		return types.Image{}, err
	}
	if img.Raster == nil {
		return types.Image{}, fmt.Errorf("transform: image has no raster")
	}
	if err := opts.Validate(); err != nil {
		return types.Image{}, fmt.Errorf("invalid options: %w", err)
	}

	src := img.Raster
	srcRect := SourceRect(src.Bounds(), opts.Crop)
	if srcRect.Empty() {
		return types.Image{}, fmt.Errorf("%w: crop region is empty", types.ErrSurfaceUnavailable)
	}

	sx, sy := opts.Factors()
	dw := scaledDim(srcRect.Dx(), sx)
	dh := scaledDim(srcRect.Dy(), sy)

	logging.Logger().Debug("transform",
		"src", srcRect, "width", dw, "height", dh,
		"format", opts.Format, "quality", opts.Quality)

	return p.render(dw, dh, opts.Format, opts.Quality, func(dst *image.NRGBA) (image.Image, error) {
		resample(dst, src, srcRect)
		return dst, nil
	})
}

// SourceRect resolves the crop region against the image bounds. A nil crop
// selects the whole image; the result is clamped to bounds.
func SourceRect(bounds image.Rectangle, crop *types.CropRegion) image.Rectangle {
	if crop == nil {
		return bounds
	}
	px := crop.ToPixels(bounds.Dx(), bounds.Dy())
	x0 := int(math.Round(px.X))
	y0 := int(math.Round(px.Y))
	x1 := int(math.Round(px.X + px.Width))
	y1 := int(math.Round(px.Y + px.Height))
	return image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds)
}

// resample draws srcRect of src over the whole of dst. Same-size copies are
// exact; anything else goes through Catmull-Rom.
func resample(dst *image.NRGBA, src image.Image, srcRect image.Rectangle) {
	if srcRect.Dx() == dst.Rect.Dx() && srcRect.Dy() == dst.Rect.Dy() {
		xdraw.Draw(dst, dst.Rect, src, srcRect.Min, xdraw.Src)
		return
	}
	xdraw.CatmullRom.Scale(dst, dst.Rect, src, srcRect, xdraw.Src, nil)
}

func scaledDim(n int, f float64) int {
	d := int(math.Round(float64(n) * f))
	if d < 1 {
		d = 1
	}
	return d
}
