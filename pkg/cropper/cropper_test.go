package cropper

import (
	"math"
	"math/rand"
	"testing"

	"github.com/menta2k/photo-editor/pkg/geometry"
	"github.com/menta2k/photo-editor/pkg/types"
)

const eps = 1e-6

var allResizeHandles = []Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

func assertInside(t *testing.T, r Rect, w, h float64) {
	t.Helper()
	if r.X < -eps || r.Y < -eps || r.Right() > w+eps || r.Bottom() > h+eps {
		t.Fatalf("Region %+v escapes container %fx%f", r, w, h)
	}
}

func TestNew(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}
	if m.State() != Uninitialized {
		t.Errorf("Expected uninitialized state, got %s", m.State())
	}
	if m.config.MinSize != 50 {
		t.Errorf("Expected min size 50, got %f", m.config.MinSize)
	}
}

func TestCommonAspectRatios(t *testing.T) {
	ratios := CommonAspectRatios()
	if len(ratios) == 0 {
		t.Fatal("Expected at least one common aspect ratio")
	}

	sq, ok := AspectRatioByName("square")
	if !ok || sq.Value() != 1 {
		t.Error("Expected to find square aspect ratio")
	}
	if Free.Value() != 0 {
		t.Errorf("Free ratio should be 0, got %f", Free.Value())
	}
	if math.Abs(Widescreen.Value()-16.0/9.0) > eps {
		t.Errorf("Unexpected widescreen ratio %f", Widescreen.Value())
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		w, h, ratio float64
		want        Rect
	}{
		{"free", 1000, 500, 0, Rect{X: 100, Y: 50, Width: 800, Height: 400}},
		{"square in wide container", 1000, 500, 1, Rect{X: 300, Y: 50, Width: 400, Height: 400}},
		{"square in tall container", 500, 1000, 1, Rect{X: 50, Y: 300, Width: 400, Height: 400}},
		{"widescreen in square container", 900, 900, 16.0 / 9.0, Rect{X: 90, Y: 247.5, Width: 720, Height: 405}},
	}

	for _, tt := range tests {
		m := New()
		if !m.Initialize(tt.w, tt.h, tt.ratio) {
			t.Fatalf("%s: Initialize returned false", tt.name)
		}
		got := m.Region()
		if math.Abs(got.X-tt.want.X) > eps || math.Abs(got.Y-tt.want.Y) > eps ||
			math.Abs(got.Width-tt.want.Width) > eps || math.Abs(got.Height-tt.want.Height) > eps {
			t.Errorf("%s: expected %+v, got %+v", tt.name, tt.want, got)
		}
		if m.State() != Initialized {
			t.Errorf("%s: expected initialized state", tt.name)
		}
	}
}

func TestInitializeInvalidKeepsRegion(t *testing.T) {
	m := New()
	m.Initialize(800, 600, 0)
	before := m.Region()

	for _, dims := range [][3]float64{{0, 600, 0}, {800, -1, 0}, {800, 600, -2}, {800, 600, math.NaN()}} {
		if m.Initialize(dims[0], dims[1], dims[2]) {
			t.Errorf("Initialize(%v) should fail", dims)
		}
		if m.Region() != before {
			t.Errorf("Region changed after invalid Initialize(%v)", dims)
		}
	}
}

func TestInitializeHonorsMinSize(t *testing.T) {
	tests := []struct {
		name        string
		w, h, ratio float64
		want        Rect
	}{
		{"free small container", 60, 60, 0, Rect{X: 5, Y: 5, Width: 50, Height: 50}},
		{"widescreen small container", 100, 60, 16.0 / 9.0, Rect{X: 50 - 400.0/9, Y: 5, Width: 800.0 / 9, Height: 50}},
		{"container below min", 40, 30, 0, Rect{X: 0, Y: 0, Width: 40, Height: 30}},
		{"square container below min", 40, 30, 1, Rect{X: 5, Y: 0, Width: 30, Height: 30}},
	}
	for _, tt := range tests {
		m := New()
		if !m.Initialize(tt.w, tt.h, tt.ratio) {
			t.Fatalf("%s: Initialize returned false", tt.name)
		}
		got := m.Region()
		if math.Abs(got.X-tt.want.X) > eps || math.Abs(got.Y-tt.want.Y) > eps ||
			math.Abs(got.Width-tt.want.Width) > eps || math.Abs(got.Height-tt.want.Height) > eps {
			t.Errorf("%s: expected %+v, got %+v", tt.name, tt.want, got)
		}
		assertInside(t, got, tt.w, tt.h)
		if tt.ratio > 0 && math.Abs(got.Width/got.Height-tt.ratio) > eps {
			t.Errorf("%s: ratio lost, got %f", tt.name, got.Width/got.Height)
		}
	}
}

func TestInitializeRecordsRatioForLaterContainer(t *testing.T) {
	m := New()
	if m.Initialize(0, 0, 1) {
		t.Fatal("Initialize should reject an empty container")
	}
	if m.Ratio() != 1 {
		t.Fatalf("Expected ratio 1 to be recorded, got %f", m.Ratio())
	}
	if !m.SetContainer(400, 200) {
		t.Fatal("SetContainer failed")
	}
	r := m.Region()
	if math.Abs(r.Width/r.Height-1) > eps {
		t.Errorf("Expected square region, got %+v", r)
	}
}

func TestSetAspectReinitializes(t *testing.T) {
	m := New()
	m.Initialize(1000, 500, 0)
	m.SetAspect(1)
	r := m.Region()
	if math.Abs(r.Width/r.Height-1) > eps {
		t.Errorf("Expected square region, got %+v", r)
	}
	m.SetContainer(500, 1000)
	r = m.Region()
	if math.Abs(r.Width-400) > eps || m.Ratio() != 1 {
		t.Errorf("Expected 400 wide square after container change, got %+v", r)
	}
}

func TestMoveClampsToContainer(t *testing.T) {
	m := New()
	m.Initialize(1000, 500, 0)
	m.BeginDrag(HandleMove, types.Point{X: 500, Y: 250})

	r := m.UpdateDrag(types.Point{X: 5000, Y: 5000})
	if math.Abs(r.Right()-1000) > eps || math.Abs(r.Bottom()-500) > eps {
		t.Errorf("Expected region pinned to bottom-right, got %+v", r)
	}
	r = m.UpdateDrag(types.Point{X: -5000, Y: -5000})
	if r.X != 0 || r.Y != 0 {
		t.Errorf("Expected region pinned to origin, got %+v", r)
	}
	if r.Width != 800 || r.Height != 400 {
		t.Errorf("Move should not change size, got %+v", r)
	}
}

func TestDragUsesSnapshot(t *testing.T) {
	a := New()
	a.Initialize(1000, 800, 0)
	a.BeginDrag(HandleBottomRight, types.Point{X: 900, Y: 720})
	a.UpdateDrag(types.Point{X: 850, Y: 700})
	a.UpdateDrag(types.Point{X: 700, Y: 500})
	got := a.UpdateDrag(types.Point{X: 880, Y: 710})

	b := New()
	b.Initialize(1000, 800, 0)
	b.BeginDrag(HandleBottomRight, types.Point{X: 900, Y: 720})
	want := b.UpdateDrag(types.Point{X: 880, Y: 710})

	if got != want {
		t.Errorf("Intermediate frames changed the result: %+v vs %+v", got, want)
	}
}

func TestResizeEnforcesMinSize(t *testing.T) {
	m := New()
	m.Initialize(1000, 800, 0)
	m.BeginDrag(HandleBottomRight, types.Point{X: 900, Y: 720})
	r := m.UpdateDrag(types.Point{X: -1000, Y: -1000})

	if r.Width < 50-eps || r.Height < 50-eps {
		t.Errorf("Region shrank below min size: %+v", r)
	}
	if r.X != 100 || r.Y != 80 {
		t.Errorf("Top-left corner should stay anchored, got %+v", r)
	}
}

func TestResizeFreeClampsEdges(t *testing.T) {
	m := New()
	m.Initialize(1000, 800, 0)
	m.BeginDrag(HandleTopLeft, types.Point{X: 100, Y: 80})
	r := m.UpdateDrag(types.Point{X: -300, Y: -300})

	if r.X != 0 || r.Y != 0 {
		t.Errorf("Expected top-left at origin, got %+v", r)
	}
	if math.Abs(r.Right()-900) > eps || math.Abs(r.Bottom()-720) > eps {
		t.Errorf("Opposite corner should stay anchored, got %+v", r)
	}
}

func TestLockedRatioSurvivesRandomDrags(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ratios := []float64{1, 4.0 / 3.0, 16.0 / 9.0, 3.0 / 4.0, 9.0 / 16.0, 4.0 / 5.0}
	containers := [][2]float64{{1000, 800}, {640, 480}, {300, 900}, {1920, 1080}}

	for _, ratio := range ratios {
		for _, c := range containers {
			m := New()
			if !m.Initialize(c[0], c[1], ratio) {
				t.Fatalf("Initialize failed for %v", c)
			}
			for i := 0; i < 200; i++ {
				handle := allResizeHandles[rng.Intn(len(allResizeHandles))]
				if i%5 == 0 {
					handle = HandleMove
				}
				start := types.Point{X: rng.Float64() * c[0], Y: rng.Float64() * c[1]}
				m.BeginDrag(handle, start)
				for j := 0; j < 3; j++ {
					p := types.Point{
						X: start.X + (rng.Float64()-0.5)*3*c[0],
						Y: start.Y + (rng.Float64()-0.5)*3*c[1],
					}
					r := m.UpdateDrag(p)
					if math.Abs(r.Width/r.Height-ratio) > eps {
						t.Fatalf("ratio %f container %v handle %d: got %f (%+v)", ratio, c, handle, r.Width/r.Height, r)
					}
					assertInside(t, r, c[0], c[1])
				}
				m.EndDrag()
			}
		}
	}
}

func TestFreeDragsStayInside(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := New()
	m.Initialize(800, 600, 0)
	for i := 0; i < 500; i++ {
		handle := Handle(1 + rng.Intn(9))
		m.BeginDrag(handle, types.Point{X: 400, Y: 300})
		r := m.UpdateDrag(types.Point{X: rng.Float64()*2400 - 800, Y: rng.Float64()*1800 - 600})
		assertInside(t, r, 800, 600)
		if r.Width < 50-eps || r.Height < 50-eps {
			t.Fatalf("Region below min size: %+v", r)
		}
		m.EndDrag()
	}
}

func TestHandleAt(t *testing.T) {
	m := New()
	m.Initialize(1000, 500, 0) // region 100,50 800x400

	cases := []struct {
		p    types.Point
		want Handle
	}{
		{types.Point{X: 100, Y: 50}, HandleTopLeft},
		{types.Point{X: 500, Y: 52}, HandleTop},
		{types.Point{X: 898, Y: 450}, HandleBottomRight},
		{types.Point{X: 100, Y: 250}, HandleLeft},
		{types.Point{X: 500, Y: 250}, HandleMove},
		{types.Point{X: 10, Y: 10}, HandleNone},
	}
	for _, c := range cases {
		if got := m.HandleAt(c.p); got != c.want {
			t.Errorf("HandleAt(%v) = %d, want %d", c.p, got, c.want)
		}
	}
}

func TestBeginDragRequiresInitialized(t *testing.T) {
	m := New()
	if m.BeginDrag(HandleMove, types.Point{}) {
		t.Error("BeginDrag should fail before Initialize")
	}
	m.Initialize(100, 100, 0)
	if m.BeginDrag(HandleNone, types.Point{}) {
		t.Error("BeginDrag should reject HandleNone")
	}
	if !m.BeginDrag(HandleMove, types.Point{X: 50, Y: 50}) || m.State() != Dragging {
		t.Error("Expected dragging state")
	}
	m.EndDrag()
	if m.State() != Initialized {
		t.Error("Expected initialized state after EndDrag")
	}
}

func TestCommit(t *testing.T) {
	m := New()
	m.Initialize(500, 400, 0) // region 50,40 400x320 in display units

	mapper := geometry.Mapper{
		Rect:         geometry.DisplayRect{Left: 20, Top: 30, Width: 500, Height: 400},
		NativeWidth:  1000,
		NativeHeight: 800,
	}
	crop, err := m.Commit(mapper)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if crop.X != 100 || crop.Y != 80 || crop.Width != 800 || crop.Height != 640 {
		t.Errorf("Unexpected native crop: %+v", crop)
	}
	if crop.Unit != types.Pixels {
		t.Errorf("Expected px unit, got %s", crop.Unit)
	}
	if m.State() != Committed || m.Region() != (Rect{}) {
		t.Error("Commit should clear the region")
	}
	if _, err := m.Commit(mapper); err == nil {
		t.Error("Second commit should fail")
	}
}

func TestCommitPercent(t *testing.T) {
	m := New()
	m.Initialize(500, 400, 0)
	crop, err := m.CommitPercent()
	if err != nil {
		t.Fatalf("CommitPercent failed: %v", err)
	}
	if math.Abs(crop.X-10) > eps || math.Abs(crop.Width-80) > eps || crop.Unit != types.Percent {
		t.Errorf("Unexpected percent crop: %+v", crop)
	}
}

func TestDiscard(t *testing.T) {
	m := New()
	m.Initialize(500, 400, 1)
	m.Discard()
	if m.State() != Discarded || m.Region() != (Rect{}) {
		t.Error("Discard should clear the region")
	}
}

func BenchmarkUpdateDrag(b *testing.B) {
	m := New()
	m.Initialize(1920, 1080, 16.0/9.0)
	m.BeginDrag(HandleBottomRight, types.Point{X: 1700, Y: 970})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.UpdateDrag(types.Point{X: float64(1000 + i%700), Y: float64(500 + i%400)})
	}
}
