package processing

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/types"
)

// DefaultFill is the background used around an expanded image
var DefaultFill = color.NRGBA{255, 255, 255, 255}

// ExpandLayout computes the canvas that contains a srcW×srcH image at full
// resolution and has the given width/height ratio, plus the top-left offset
// that centers the source on it.
func ExpandLayout(srcW, srcH int, targetRatio float64) (w, h int, offset image.Point) {
	srcRatio := float64(srcW) / float64(srcH)
	if targetRatio > srcRatio {
		h = srcH
		w = int(math.Round(float64(srcH) * targetRatio))
	} else {
		w = srcW
		h = int(math.Round(float64(srcW) / targetRatio))
	}
	offset = image.Pt((w-srcW)/2, (h-srcH)/2)
	return w, h, offset
}

// Expand places img centered on a larger canvas with the target aspect ratio,
// filling the margins with fill. Output is always PNG.
func (p *Processor) Expand(ctx context.Context, img types.Image, targetRatio float64, fill color.Color) (types.Image, error) {
	if err := ctx.Err(); err != nil {
		return types.Image{}, err
	}
	if img.Raster == nil {
		return types.Image{}, fmt.Errorf("expand: image has no raster")
	}
	if targetRatio <= 0 || math.IsNaN(targetRatio) || math.IsInf(targetRatio, 0) {
		return types.Image{}, fmt.Errorf("%w: invalid target ratio %g", types.ErrSurfaceUnavailable, targetRatio)
	}
	if fill == nil {
		fill = DefaultFill
	}

	src := img.Raster
	b := src.Bounds()
	w, h, off := ExpandLayout(b.Dx(), b.Dy(), targetRatio)

	logging.Logger().Debug("expand",
		"src_width", b.Dx(), "src_height", b.Dy(),
		"width", w, "height", h, "offset", off)

	return p.render(w, h, types.PNG, 1, func(dst *image.NRGBA) (image.Image, error) {
		xdraw.Draw(dst, dst.Rect, image.NewUniform(fill), image.Point{}, xdraw.Src)
		xdraw.Draw(dst, b.Sub(b.Min).Add(off), src, b.Min, xdraw.Over)
		return dst, nil
	})
}
