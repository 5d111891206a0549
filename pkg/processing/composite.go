package processing

import (
	"context"
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/mask"
	"github.com/menta2k/photo-editor/pkg/types"
)

// Composite draws img scaled to targetW×targetH and burns strokes on top in
// order, producing one flattened PNG. Stroke coordinates are in source image
// pixels. A zero target dimension means the source dimension.
func (p *Processor) Composite(ctx context.Context, img types.Image, strokes []mask.Stroke, targetW, targetH int) (types.Image, error) {
	if err := ctx.Err(); err != nil {
		return types.Image{}, err
	}
	if img.Raster == nil {
		return types.Image{}, fmt.Errorf("composite: image has no raster")
	}

	src := img.Raster
	b := src.Bounds()
	if targetW == 0 {
		targetW = b.Dx()
	}
	if targetH == 0 {
		targetH = b.Dy()
	}

	logging.Logger().Debug("composite",
		"strokes", len(strokes), "width", targetW, "height", targetH)

	return p.render(targetW, targetH, types.PNG, 1, func(dst *image.NRGBA) (image.Image, error) {
		resample(dst, src, b)

		sx := float64(targetW) / float64(b.Dx())
		sy := float64(targetH) / float64(b.Dy())

		dc := gg.NewContextForImage(dst)
		defer dc.Close()
		dc.SetLineCap(gg.LineCapRound)
		dc.SetLineJoin(gg.LineJoinRound)

		for i, s := range strokes {
			if err := drawStroke(dc, s, sx, sy); err != nil {
				return nil, fmt.Errorf("%w: stroke %d: %v", types.ErrSurfaceUnavailable, i, err)
			}
		}
		return dc.Image(), nil
	})
}

func drawStroke(dc *gg.Context, s mask.Stroke, sx, sy float64) error {
	if len(s.Points) == 0 || s.Size <= 0 {
		return nil
	}
	width := s.Size * (sx + sy) / 2
	dc.SetColor(s.Color)

	first := s.Points[0]
	if len(s.Points) == 1 {
		dc.DrawCircle(first.X*sx, first.Y*sy, width/2)
		return dc.Fill()
	}

	dc.SetLineWidth(width)
	dc.MoveTo(first.X*sx, first.Y*sy)
	for _, pt := range s.Points[1:] {
		dc.LineTo(pt.X*sx, pt.Y*sy)
	}
	return dc.Stroke()
}
