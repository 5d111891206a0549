package mask

import (
	"image/color"
	"testing"

	"github.com/menta2k/photo-editor/pkg/types"
)

func TestNew(t *testing.T) {
	m := New()
	if m.Tool().Size != DefaultSize {
		t.Errorf("Expected default size %f, got %f", DefaultSize, m.Tool().Size)
	}
	if m.Tool().Color != DefaultColor {
		t.Errorf("Expected default color, got %v", m.Tool().Color)
	}
	if m.Len() != 0 || m.Drawing() {
		t.Error("New model should be idle and empty")
	}
}

func TestGestureRecordsStroke(t *testing.T) {
	m := New()
	m.PointerDown(types.Point{X: 1, Y: 1})
	if !m.Drawing() {
		t.Fatal("Expected drawing state after PointerDown")
	}
	m.PointerMove(types.Point{X: 2, Y: 2})
	m.PointerMove(types.Point{X: 2, Y: 2})
	m.PointerMove(types.Point{X: 3, Y: 5})
	m.PointerUp()

	strokes := m.Strokes()
	if len(strokes) != 1 {
		t.Fatalf("Expected 1 stroke, got %d", len(strokes))
	}
	// duplicate samples are kept
	if len(strokes[0].Points) != 4 {
		t.Errorf("Expected 4 points, got %d", len(strokes[0].Points))
	}
	if m.Drawing() {
		t.Error("Expected idle state after PointerUp")
	}
}

func TestToolAppliesToNewStrokes(t *testing.T) {
	m := New()
	m.PointerDown(types.Point{})
	m.SetTool(Tool{Size: 5, Color: color.NRGBA{0, 0, 255, 255}})
	m.PointerUp()

	m.PointerDown(types.Point{})
	m.PointerUp()

	strokes := m.Strokes()
	if strokes[0].Size != DefaultSize {
		t.Errorf("First stroke should keep the tool it started with, got %f", strokes[0].Size)
	}
	if strokes[1].Size != 5 || strokes[1].Color.B != 255 {
		t.Errorf("Second stroke should use the new tool, got %+v", strokes[1])
	}

	m.SetTool(Tool{Size: 0})
	if m.Tool().Size != 5 {
		t.Error("Zero-width tool should be ignored")
	}
}

func TestMoveWithoutDownIsIgnored(t *testing.T) {
	m := New()
	m.PointerMove(types.Point{X: 1, Y: 1})
	m.PointerUp()
	if m.Len() != 0 {
		t.Errorf("Expected no strokes, got %d", m.Len())
	}
}

func TestStrokeOrderPreserved(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.PointerDown(types.Point{X: float64(i)})
		m.PointerUp()
	}
	for i, s := range m.Strokes() {
		if s.Points[0].X != float64(i) {
			t.Errorf("Stroke %d out of order: %+v", i, s.Points[0])
		}
	}
}

func TestStrokesReturnsCopy(t *testing.T) {
	m := New()
	m.PointerDown(types.Point{X: 1})
	m.PointerUp()

	s := m.Strokes()
	s[0].Points[0].X = 99
	if m.Strokes()[0].Points[0].X != 1 {
		t.Error("Mutating the returned slice changed the model")
	}
}

func TestClear(t *testing.T) {
	m := New()
	m.PointerDown(types.Point{})
	m.PointerUp()
	m.PointerDown(types.Point{})

	m.Clear()
	if m.Len() != 0 || m.Drawing() {
		t.Error("Clear should drop persisted and active strokes")
	}
	m.PointerUp()
	if m.Len() != 0 {
		t.Error("PointerUp after Clear should not persist anything")
	}
}

func TestActive(t *testing.T) {
	m := New()
	if _, ok := m.Active(); ok {
		t.Error("Expected no active stroke")
	}
	m.PointerDown(types.Point{X: 3, Y: 4})
	s, ok := m.Active()
	if !ok || len(s.Points) != 1 {
		t.Errorf("Expected active stroke with one point, got %+v", s)
	}
}
