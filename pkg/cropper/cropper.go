package cropper

import (
	"fmt"
	"math"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/geometry"
	"github.com/menta2k/photo-editor/pkg/types"
)

// State of the crop overlay
type State int

const (
	Uninitialized State = iota
	Initialized
	Dragging
	Committed
	Discarded
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	case Discarded:
		return "discarded"
	}
	return "uninitialized"
}

// Handle identifies what a drag gesture manipulates
type Handle int

const (
	HandleNone Handle = iota
	HandleMove
	HandleTopLeft
	HandleTop
	HandleTopRight
	HandleRight
	HandleBottomRight
	HandleBottom
	HandleBottomLeft
	HandleLeft
)

// edges reports which sides of the region a handle moves
func (h Handle) edges() (left, top, right, bottom bool) {
	switch h {
	case HandleTopLeft:
		return true, true, false, false
	case HandleTop:
		return false, true, false, false
	case HandleTopRight:
		return false, true, true, false
	case HandleRight:
		return false, false, true, false
	case HandleBottomRight:
		return false, false, true, true
	case HandleBottom:
		return false, false, false, true
	case HandleBottomLeft:
		return true, false, false, true
	case HandleLeft:
		return true, false, false, false
	}
	return false, false, false, false
}

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Value returns width/height, 0 for a free ratio
func (a AspectRatio) Value() float64 {
	if a.Width <= 0 || a.Height <= 0 {
		return 0
	}
	return float64(a.Width) / float64(a.Height)
}

// Common aspect ratios
var (
	Free       = AspectRatio{0, 0, "free"}
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Free, Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// AspectRatioByName looks up a preset
func AspectRatioByName(name string) (AspectRatio, bool) {
	for _, r := range CommonAspectRatios() {
		if r.Name == name {
			return r, true
		}
	}
	return AspectRatio{}, false
}

// Config holds configuration for the crop overlay
type Config struct {
	MinSize     float64
	HandleSize  float64
	InitialFill float64
}

// DefaultConfig returns the stock overlay settings
func DefaultConfig() Config {
	return Config{
		MinSize:     50,
		HandleSize:  12,
		InitialFill: 0.8,
	}
}

// Rect is a region in overlay (display) units, relative to the container origin
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside the rectangle
func (r Rect) Contains(p types.Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Model is the crop region state machine.
//
// All drag updates are computed from the snapshot taken in BeginDrag, never
// from the previous frame.
type Model struct {
	config Config
	state  State

	containerW float64
	containerH float64
	ratio      float64
	region     Rect

	handle       Handle
	startPointer types.Point
	startRegion  Rect
}

// New creates a Model with default configuration
func New() *Model {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a Model with custom configuration
func NewWithConfig(config Config) *Model {
	if config.InitialFill <= 0 || config.InitialFill > 1 {
		config.InitialFill = DefaultConfig().InitialFill
	}
	if config.MinSize < 0 {
		config.MinSize = 0
	}
	return &Model{config: config}
}

// State returns the current state
func (m *Model) State() State { return m.state }

// Region returns the current region in overlay units
func (m *Model) Region() Rect { return m.region }

// Ratio returns the locked aspect ratio, 0 when unconstrained
func (m *Model) Ratio() float64 { return m.ratio }

// Container returns the container size
func (m *Model) Container() (float64, float64) { return m.containerW, m.containerH }

// Initialize places an 80% centered region honoring ratio, grown to MinSize
// when the container allows it. A degenerate container leaves the previous
// region untouched and returns false; a valid ratio is still recorded so the
// next container change keeps it.
func (m *Model) Initialize(width, height, ratio float64) bool {
	if ratio < 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		logging.Logger().Debug("crop: ignoring invalid ratio", "ratio", ratio)
		return false
	}
	m.ratio = ratio
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		logging.Logger().Debug("crop: ignoring invalid container", "width", width, "height", height)
		return false
	}

	fill := m.config.InitialFill
	var w, h float64
	switch {
	case ratio == 0:
		w, h = width*fill, height*fill
	case width/height > ratio:
		h = height * fill
		w = h * ratio
	default:
		w = width * fill
		h = w / ratio
	}

	m.containerW, m.containerH = width, height
	w, h = m.fitMin(w, h)

	m.region = Rect{X: (width - w) / 2, Y: (height - h) / 2, Width: w, Height: h}
	m.handle = HandleNone
	m.state = Initialized
	return true
}

// fitMin grows w×h to the minimum size, then shrinks it back into the
// container, keeping the locked ratio throughout
func (m *Model) fitMin(w, h float64) (float64, float64) {
	minW, minH := m.minDims()
	if w < minW {
		w = minW
		if m.ratio > 0 {
			h = w / m.ratio
		}
	}
	if h < minH {
		h = minH
		if m.ratio > 0 {
			w = h * m.ratio
		}
	}
	if w > m.containerW {
		w = m.containerW
		if m.ratio > 0 {
			h = w / m.ratio
		}
	}
	if h > m.containerH {
		h = m.containerH
		if m.ratio > 0 {
			w = h * m.ratio
		}
	}
	return w, h
}

// SetContainer re-initializes for a new container size, keeping the ratio
func (m *Model) SetContainer(width, height float64) bool {
	return m.Initialize(width, height, m.ratio)
}

// SetAspect re-initializes with a new locked ratio
func (m *Model) SetAspect(ratio float64) bool {
	return m.Initialize(m.containerW, m.containerH, ratio)
}

// HandleAt hit-tests a pointer against the region's handles
func (m *Model) HandleAt(p types.Point) Handle {
	if m.state != Initialized && m.state != Dragging {
		return HandleNone
	}
	r := m.region
	hs := m.config.HandleSize / 2
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	spots := []struct {
		x, y float64
		h    Handle
	}{
		{r.X, r.Y, HandleTopLeft},
		{cx, r.Y, HandleTop},
		{r.Right(), r.Y, HandleTopRight},
		{r.Right(), cy, HandleRight},
		{r.Right(), r.Bottom(), HandleBottomRight},
		{cx, r.Bottom(), HandleBottom},
		{r.X, r.Bottom(), HandleBottomLeft},
		{r.X, cy, HandleLeft},
	}
	for _, s := range spots {
		if math.Abs(p.X-s.x) <= hs && math.Abs(p.Y-s.y) <= hs {
			return s.h
		}
	}
	if r.Contains(p) {
		return HandleMove
	}
	return HandleNone
}

// BeginDrag captures the pointer and region at gesture start
func (m *Model) BeginDrag(handle Handle, pointer types.Point) bool {
	if m.state != Initialized || handle == HandleNone {
		return false
	}
	m.handle = handle
	m.startPointer = pointer
	m.startRegion = m.region
	m.state = Dragging
	return true
}

// UpdateDrag applies the pointer delta since BeginDrag
func (m *Model) UpdateDrag(pointer types.Point) Rect {
	if m.state != Dragging {
		return m.region
	}
	dx := pointer.X - m.startPointer.X
	dy := pointer.Y - m.startPointer.Y

	if m.handle == HandleMove {
		s := m.startRegion
		m.region = Rect{
			X:      clamp(s.X+dx, 0, m.containerW-s.Width),
			Y:      clamp(s.Y+dy, 0, m.containerH-s.Height),
			Width:  s.Width,
			Height: s.Height,
		}
		return m.region
	}

	m.region = m.resize(dx, dy)
	return m.region
}

// EndDrag finishes the gesture
func (m *Model) EndDrag() {
	if m.state != Dragging {
		return
	}
	m.handle = HandleNone
	m.state = Initialized
}

// Commit converts the region to native image pixels and clears the model
func (m *Model) Commit(mapper geometry.Mapper) (types.CropRegion, error) {
	if m.state != Initialized && m.state != Dragging {
		return types.CropRegion{}, fmt.Errorf("no crop region to commit (state %s)", m.state)
	}
	if _, ok := geometry.NewMapper(mapper.Rect, mapper.NativeWidth, mapper.NativeHeight); !ok {
		return types.CropRegion{}, fmt.Errorf("invalid display mapping")
	}

	r := m.region
	x, y, w, h := mapper.RectToImage(r.X, r.Y, r.Width, r.Height)
	out := types.CropRegion{X: x, Y: y, Width: w, Height: h, Unit: types.Pixels, Aspect: m.ratio}

	m.reset(Committed)
	return out, nil
}

// CommitPercent returns the region as a percentage of the container and clears the model
func (m *Model) CommitPercent() (types.CropRegion, error) {
	if m.state != Initialized && m.state != Dragging {
		return types.CropRegion{}, fmt.Errorf("no crop region to commit (state %s)", m.state)
	}
	r := m.region
	out := types.CropRegion{
		X:      r.X / m.containerW * 100,
		Y:      r.Y / m.containerH * 100,
		Width:  r.Width / m.containerW * 100,
		Height: r.Height / m.containerH * 100,
		Unit:   types.Percent,
		Aspect: m.ratio,
	}
	m.reset(Committed)
	return out, nil
}

// Discard drops the region without applying it
func (m *Model) Discard() {
	m.reset(Discarded)
}

func (m *Model) reset(state State) {
	m.region = Rect{}
	m.startRegion = Rect{}
	m.handle = HandleNone
	m.state = state
}

// minDims returns the minimum width and height, honoring the locked ratio so
// that both sides stay at or above MinSize.
func (m *Model) minDims() (float64, float64) {
	minSize := m.config.MinSize
	minW, minH := minSize, minSize
	if m.ratio > 0 {
		if m.ratio >= 1 {
			minW = minSize * m.ratio
		} else {
			minH = minSize / m.ratio
		}
	}
	return math.Min(minW, m.containerW), math.Min(minH, m.containerH)
}

func (m *Model) resize(dx, dy float64) Rect {
	s := m.startRegion
	moveL, moveT, moveR, moveB := m.handle.edges()
	minW, minH := m.minDims()

	left, top, right, bottom := s.X, s.Y, s.Right(), s.Bottom()
	if moveL {
		left = clamp(left+dx, 0, right-minW)
	}
	if moveR {
		right = clamp(right+dx, left+minW, m.containerW)
	}
	if moveT {
		top = clamp(top+dy, 0, bottom-minH)
	}
	if moveB {
		bottom = clamp(bottom+dy, top+minH, m.containerH)
	}

	if m.ratio > 0 {
		w, h := right-left, bottom-top
		horizontal := moveL || moveR
		vertical := moveT || moveB
		if horizontal && (!vertical || math.Abs(dx) >= math.Abs(dy)*m.ratio) {
			h = w / m.ratio
		} else {
			w = h * m.ratio
		}

		// Space available on the side that is allowed to move
		maxW := m.containerW - left
		if moveL {
			maxW = right
		}
		maxH := m.containerH - top
		if moveT {
			maxH = bottom
		}
		if w > maxW {
			w = maxW
			h = w / m.ratio
		}
		if h > maxH {
			h = maxH
			w = h * m.ratio
		}

		if moveL {
			left = right - w
		} else {
			right = left + w
		}
		if moveT {
			top = bottom - h
		} else {
			bottom = top + h
		}
	}

	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
