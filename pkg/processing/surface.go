package processing

import (
	"fmt"
	"image"
	"sync"

	"github.com/menta2k/photo-editor/pkg/types"
)

var pixPool sync.Pool

// surface is a scratch drawing target. It must be released once drawing and
// encoding are done; nothing may keep a reference to img after Release.
type surface struct {
	img *image.NRGBA
}

func (p *Processor) acquireSurface(w, h int) (*surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", types.ErrSurfaceUnavailable, w, h)
	}
	if int64(w)*int64(h) > p.config.MaxSurfacePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", types.ErrSurfaceUnavailable, w, h, p.config.MaxSurfacePixels)
	}

	n := w * h * 4
	var pix []uint8
	if buf, ok := pixPool.Get().(*[]uint8); ok && cap(*buf) >= n {
		pix = (*buf)[:n]
		clear(pix)
	} else {
		pix = make([]uint8, n)
	}

	return &surface{img: &image.NRGBA{
		Pix:    pix,
		Stride: 4 * w,
		Rect:   image.Rect(0, 0, w, h),
	}}, nil
}

// Release returns the pixel buffer to the pool. Safe to call more than once.
func (s *surface) Release() {
	if s == nil || s.img == nil {
		return
	}
	pix := s.img.Pix
	s.img = nil
	pixPool.Put(&pix)
}

// render acquires a w×h surface, lets draw fill it and encodes the result.
// The surface is released on every path, including errors from draw or the
// encoder.
func (p *Processor) render(w, h int, format types.Format, quality float64, draw func(dst *image.NRGBA) (image.Image, error)) (types.Image, error) {
	s, err := p.acquireSurface(w, h)
	if err != nil {
		return types.Image{}, err
	}
	defer s.Release()

	out, err := draw(s.img)
	if err != nil {
		return types.Image{}, err
	}

	data, err := Encode(out, format, quality)
	if err != nil {
		return types.Image{}, err
	}

	// Raster is rebuilt from the encoded bytes so it never aliases the pooled buffer
	raster, err := Decode(data)
	if err != nil {
		return types.Image{}, fmt.Errorf("%w: %v", types.ErrEncodingFailed, err)
	}
	return types.NewImage(data, raster, format.MIMEType()), nil
}
