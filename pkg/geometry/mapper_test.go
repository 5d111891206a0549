package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestToImageSpace(t *testing.T) {
	rect := DisplayRect{Left: 100, Top: 50, Width: 500, Height: 400}

	x, y := ToImageSpace(350, 250, rect, 1000, 800)
	if math.Abs(x-500) > eps || math.Abs(y-400) > eps {
		t.Errorf("Expected (500,400), got (%f,%f)", x, y)
	}
}

func TestToImageSpaceIndependentAxes(t *testing.T) {
	// Display squashes a 1000x500 image into a 500x500 box
	rect := DisplayRect{Left: 0, Top: 0, Width: 500, Height: 500}

	x, y := ToImageSpace(250, 250, rect, 1000, 500)
	if math.Abs(x-500) > eps {
		t.Errorf("Expected x=500, got %f", x)
	}
	if math.Abs(y-250) > eps {
		t.Errorf("Expected y=250, got %f", y)
	}
}

func TestRoundTrip(t *testing.T) {
	rects := []DisplayRect{
		{Left: 0, Top: 0, Width: 640, Height: 480},
		{Left: 13.5, Top: 77.25, Width: 321, Height: 123},
		{Left: -20, Top: 10, Width: 1920, Height: 1080},
	}
	points := [][2]float64{{0, 0}, {10.5, 20.25}, {300, 100}, {-5, 1000}}

	for _, rect := range rects {
		for _, p := range points {
			ix, iy := ToImageSpace(p[0], p[1], rect, 1234, 567)
			dx, dy := ToDisplaySpace(ix, iy, rect, 1234, 567)
			if math.Abs(dx-p[0]) > 1e-6 || math.Abs(dy-p[1]) > 1e-6 {
				t.Errorf("Round trip of %v through %+v gave (%f,%f)", p, rect, dx, dy)
			}
		}
	}
}

func TestDegenerateRect(t *testing.T) {
	x, y := ToImageSpace(10, 10, DisplayRect{Width: 0, Height: 100}, 100, 100)
	if x != 0 || y != 0 {
		t.Errorf("Expected origin for degenerate rect, got (%f,%f)", x, y)
	}

	if _, ok := NewMapper(DisplayRect{Width: 100, Height: 100}, 0, 100); ok {
		t.Error("Expected NewMapper to reject zero native width")
	}
}

func TestMapperRectToImage(t *testing.T) {
	m, ok := NewMapper(DisplayRect{Left: 40, Top: 40, Width: 500, Height: 400}, 1000, 800)
	if !ok {
		t.Fatal("Expected valid mapper")
	}

	x, y, w, h := m.RectToImage(50, 50, 200, 200)
	if x != 100 || y != 100 || w != 400 || h != 400 {
		t.Errorf("Unexpected rect: %f,%f %fx%f", x, y, w, h)
	}

	ax, ay := m.ToImage(90, 90)
	if ax != 100 || ay != 100 {
		t.Errorf("Expected (100,100), got (%f,%f)", ax, ay)
	}
}
