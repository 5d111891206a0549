package mask

import (
	"image/color"
	"sync"

	"github.com/menta2k/photo-editor/pkg/types"
)

// DefaultColor is a half-transparent red
var DefaultColor = color.NRGBA{R: 255, G: 0, B: 0, A: 128}

// DefaultSize is the default brush width in image pixels
const DefaultSize = 20.0

// Stroke is one freehand gesture: a polyline with width and color
type Stroke struct {
	Points []types.Point `json:"points"`
	Size   float64       `json:"size"`
	Color  color.NRGBA   `json:"color"`
}

// Tool holds the brush settings applied to new strokes
type Tool struct {
	Size  float64
	Color color.NRGBA
}

// DefaultTool returns the stock brush
func DefaultTool() Tool {
	return Tool{Size: DefaultSize, Color: DefaultColor}
}

// Model records strokes from pointer gestures.
// Strokes are kept in draw order; later strokes paint over earlier ones.
type Model struct {
	mu      sync.Mutex
	tool    Tool
	strokes []Stroke
	active  *Stroke
}

// New creates a Model with the default tool
func New() *Model {
	return &Model{tool: DefaultTool()}
}

// NewWithTool creates a Model with custom brush settings
func NewWithTool(tool Tool) *Model {
	if tool.Size <= 0 {
		tool.Size = DefaultSize
	}
	return &Model{tool: tool}
}

// SetTool changes the brush for subsequent strokes
func (m *Model) SetTool(tool Tool) {
	if tool.Size <= 0 {
		return
	}
	m.mu.Lock()
	m.tool = tool
	m.mu.Unlock()
}

// Tool returns the current brush
func (m *Model) Tool() Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tool
}

// PointerDown starts a new stroke at p
func (m *Model) PointerDown(p types.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = &Stroke{
		Points: []types.Point{p},
		Size:   m.tool.Size,
		Color:  m.tool.Color,
	}
}

// PointerMove appends p to the active stroke; no decimation is applied
func (m *Model) PointerMove(p types.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return
	}
	m.active.Points = append(m.active.Points, p)
}

// PointerUp persists the active stroke if it has points
func (m *Model) PointerUp() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil && len(m.active.Points) > 0 {
		m.strokes = append(m.strokes, *m.active)
	}
	m.active = nil
}

// Drawing reports whether a gesture is in progress
func (m *Model) Drawing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Active returns a copy of the in-progress stroke, for live preview
func (m *Model) Active() (Stroke, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Stroke{}, false
	}
	return cloneStroke(*m.active), true
}

// Strokes returns a copy of the persisted strokes in draw order
func (m *Model) Strokes() []Stroke {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Stroke, len(m.strokes))
	for i, s := range m.strokes {
		out[i] = cloneStroke(s)
	}
	return out
}

// Len returns the number of persisted strokes
func (m *Model) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.strokes)
}

// Clear drops every stroke, including one in progress. There is no undo.
func (m *Model) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strokes = nil
	m.active = nil
}

func cloneStroke(s Stroke) Stroke {
	pts := make([]types.Point, len(s.Points))
	copy(pts, s.Points)
	s.Points = pts
	return s
}
