package geometry

// DisplayRect is where an image is drawn on screen, in display units
type DisplayRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the rectangle has a positive size
func (r DisplayRect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// ToImageSpace converts a pointer position to native image pixels.
//
// The horizontal and vertical factors are computed independently, so the
// mapping stays correct when the displayed aspect ratio differs from the
// native one. A degenerate rect maps everything to the origin.
func ToImageSpace(pointerX, pointerY float64, rect DisplayRect, nativeW, nativeH int) (float64, float64) {
	if !rect.Valid() {
		return 0, 0
	}
	scaleX := float64(nativeW) / rect.Width
	scaleY := float64(nativeH) / rect.Height
	return (pointerX - rect.Left) * scaleX, (pointerY - rect.Top) * scaleY
}

// ToDisplaySpace is the inverse of ToImageSpace
func ToDisplaySpace(imageX, imageY float64, rect DisplayRect, nativeW, nativeH int) (float64, float64) {
	if nativeW <= 0 || nativeH <= 0 {
		return rect.Left, rect.Top
	}
	scaleX := rect.Width / float64(nativeW)
	scaleY := rect.Height / float64(nativeH)
	return rect.Left + imageX*scaleX, rect.Top + imageY*scaleY
}

// Mapper binds a display rect to a native image size
type Mapper struct {
	Rect         DisplayRect
	NativeWidth  int
	NativeHeight int
}

// NewMapper creates a Mapper; ok is false when either size is degenerate
func NewMapper(rect DisplayRect, nativeW, nativeH int) (Mapper, bool) {
	m := Mapper{Rect: rect, NativeWidth: nativeW, NativeHeight: nativeH}
	return m, rect.Valid() && nativeW > 0 && nativeH > 0
}

// Scale returns the per-axis display→image factors
func (m Mapper) Scale() (float64, float64) {
	if !m.Rect.Valid() {
		return 0, 0
	}
	return float64(m.NativeWidth) / m.Rect.Width, float64(m.NativeHeight) / m.Rect.Height
}

// ToImage maps an absolute pointer position to image pixels
func (m Mapper) ToImage(x, y float64) (float64, float64) {
	return ToImageSpace(x, y, m.Rect, m.NativeWidth, m.NativeHeight)
}

// ToDisplay maps image pixels back to an absolute display position
func (m Mapper) ToDisplay(x, y float64) (float64, float64) {
	return ToDisplaySpace(x, y, m.Rect, m.NativeWidth, m.NativeHeight)
}

// RectToImage converts a rectangle given relative to the display rect origin
// (overlay coordinates) into native image pixels.
func (m Mapper) RectToImage(x, y, w, h float64) (float64, float64, float64, float64) {
	sx, sy := m.Scale()
	return x * sx, y * sy, w * sx, h * sy
}
