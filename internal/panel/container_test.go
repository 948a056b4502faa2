package panel

import (
	"image"
	"image/color"
	"testing"

	"epdpanel/internal/palette"
)

// solid is a test panel that fills whatever size it is given.
type solid struct {
	w, h    int
	c       color.RGBA
	refresh bool
	draws   int
}

func (s *solid) Draw() *image.RGBA {
	s.draws++
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = s.c.R, s.c.G, s.c.B, s.c.A
	}
	return img
}

func (s *solid) SetSize(w, h int)   { s.w, s.h = w, h }
func (s *solid) Size() (int, int)   { return s.w, s.h }
func (s *solid) NeedsRefresh() bool { return s.refresh }

func TestFourForcesEqualQuadrants(t *testing.T) {
	colors := []color.RGBA{palette.Red, palette.Green, palette.Blue, palette.Yellow}
	children := []*solid{
		{w: 10, h: 10, c: colors[0]},
		{w: 500, h: 20, c: colors[1]},
		{w: 33, h: 400, c: colors[2]},
		{w: 1, h: 1, c: colors[3]},
	}
	four := NewFour(800, 480, Settings{}, false, children[0], children[1], children[2], children[3])

	wantW, wantH := (800-2*10)/2-2*10, (480-2*10)/2-2*10
	for i, c := range children {
		if c.w != wantW || c.h != wantH {
			t.Errorf("child %d size = %dx%d, want %dx%d", i, c.w, c.h, wantW, wantH)
		}
	}

	img := four.Draw()
	if img.Bounds() != image.Rect(0, 0, 800, 480) {
		t.Fatalf("bounds = %v", img.Bounds())
	}

	rects := make([]image.Rectangle, 4)
	counts := make([]int, 4)
	for y := 0; y < 480; y++ {
		for x := 0; x < 800; x++ {
			px := img.RGBAAt(x, y)
			for i, c := range colors {
				if px == c {
					counts[i]++
					rects[i] = rects[i].Union(image.Rect(x, y, x+1, y+1))
				}
			}
		}
	}
	for i := range children {
		if counts[i] != wantW*wantH {
			t.Errorf("child %d painted %d pixels, want %d", i, counts[i], wantW*wantH)
		}
		if rects[i] != four.ChildRect(i) {
			t.Errorf("child %d occupies %v, want %v", i, rects[i], four.ChildRect(i))
		}
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Overlaps(rects[j]) {
				t.Errorf("children %d and %d overlap: %v %v", i, j, rects[i], rects[j])
			}
		}
	}
	if got := four.ChildRect(1).Min; got != image.Pt(800/2+10, 10+10) {
		t.Errorf("top-right origin = %v", got)
	}
}

func TestSplitGeometry(t *testing.T) {
	s := Settings{"margin": 4, "padding": 6}
	tests := []struct {
		name  string
		split *Split
		w, h  int
		rect1 image.Rectangle
	}{
		{"horizontal", NewHorizontal(200, 100, s, false), 84, 80, image.Rect(106, 10, 190, 90)},
		{"vertical", NewVertical(200, 100, s, false), 180, 34, image.Rect(10, 56, 190, 90)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.split.ChildSize()
			if w != tt.w || h != tt.h {
				t.Errorf("ChildSize = %dx%d, want %dx%d", w, h, tt.w, tt.h)
			}
			if got := tt.split.ChildRect(1); got != tt.rect1 {
				t.Errorf("ChildRect(1) = %v, want %v", got, tt.rect1)
			}
		})
	}
}

func TestSplitResizePropagates(t *testing.T) {
	a, b := &solid{}, &solid{}
	h := NewHorizontal(400, 200, Settings{}, false, a, b)
	h.SetSize(600, 300)
	w, hh := h.ChildSize()
	if a.w != w || a.h != hh || b.w != w || b.h != hh {
		t.Errorf("children not resized: a=%dx%d b=%dx%d want %dx%d", a.w, a.h, b.w, b.h, w, hh)
	}
}

func TestSplitSkipsMissingChildren(t *testing.T) {
	only := &solid{c: palette.Green}
	four := NewFour(200, 200, Settings{}, true, only)
	img := four.Draw()
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 200 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if only.draws != 1 {
		t.Errorf("child drawn %d times, want 1", only.draws)
	}
	if four.Child(3) != nil {
		t.Error("empty slot should be nil")
	}
}

func TestSplitNeedsRefresh(t *testing.T) {
	still, live := &solid{}, &solid{refresh: true}
	if NewVertical(100, 100, Settings{}, false, still).NeedsRefresh() {
		t.Error("static children reported a refresh")
	}
	inner := NewHorizontal(100, 100, Settings{}, false, still, live)
	if !NewVertical(100, 100, Settings{}, false, still, inner).NeedsRefresh() {
		t.Error("nested refreshing child not reported")
	}
}
