package processing

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Overlay colors
var (
	overlayShade  = color.NRGBA{0, 0, 0, 110}
	overlayBorder = color.NRGBA{255, 204, 0, 255}
	overlayHandle = color.NRGBA{255, 255, 255, 255}
)

// CropOverlay renders a preview of a pending crop: the area outside rect is
// dimmed, rect gets a border and the eight resize handles are drawn as
// squares of handleSize pixels.
func CropOverlay(img image.Image, rect image.Rectangle, handleSize int) *image.NRGBA {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	rect = rect.Intersect(b)
	if rect.Empty() {
		return nrgba
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !image.Pt(x, y).In(rect) {
				blendPixel(nrgba, x, y, overlayShade)
			}
		}
	}

	stroke := int(math.Max(1, 0.003*float64(min(b.Dx(), b.Dy()))))
	drawRect(nrgba, rect, overlayBorder, stroke)

	if handleSize > 0 {
		half := handleSize / 2
		cx := (rect.Min.X + rect.Max.X) / 2
		cy := (rect.Min.Y + rect.Max.Y) / 2
		for _, pt := range []image.Point{
			{rect.Min.X, rect.Min.Y}, {cx, rect.Min.Y}, {rect.Max.X - 1, rect.Min.Y},
			{rect.Max.X - 1, cy}, {rect.Max.X - 1, rect.Max.Y - 1}, {cx, rect.Max.Y - 1},
			{rect.Min.X, rect.Max.Y - 1}, {rect.Min.X, cy},
		} {
			fillRect(nrgba, image.Rect(pt.X-half, pt.Y-half, pt.X-half+handleSize, pt.Y-half+handleSize), overlayHandle)
		}
	}
	return nrgba
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		drawHLine(img, y, r.Min.X, r.Max.X, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	b := img.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X)
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, c)
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = max(y0, b.Min.Y)
	y1 = min(y1, b.Max.Y)
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, c)
	}
}

// blendPixel composites c over the pixel at (x, y)
func blendPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	i := img.PixOffset(x, y)
	a := uint32(c.A)
	for k, v := range [3]uint8{c.R, c.G, c.B} {
		img.Pix[i+k] = uint8((uint32(v)*a + uint32(img.Pix[i+k])*(255-a)) / 255)
	}
}
