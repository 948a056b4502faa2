package render

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"golang.org/x/image/font/basicfont"
)

// basicfont.Face7x13 advances every glyph by 7 pixels.
var mono = basicfont.Face7x13

func TestWrapKeepsLongWordWhole(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		want     []string
	}{
		{"long word at the limit", "aaaaaaaaaa bb", 10 * 7, []string{"aaaaaaaaaa", "bb"}},
		{"long word over the limit", "aaaaaaaaaa bb", 6 * 7, []string{"aaaaaaaaaa", "bb"}},
		{"greedy fill", "aa bb cc dd", 5 * 7, []string{"aa bb", "cc dd"}},
		{"explicit newline", "2024-01-02\n10:30", 100 * 7, []string{"2024-01-02", "10:30"}},
		{"collapses spaces", "  one   two ", 100 * 7, []string{"one two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(mono, tt.text, tt.maxWidth)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap(%q, %d) = %q, want %q", tt.text, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s        string
		maxWidth int
		want     string
	}{
		{"short", 10 * 7, "short"},
		{"Quarterly planning", 10 * 7, "Quarter..."},
		{"abc", 3 * 7, "abc"},
		{"abcdef", 3 * 7, "..."},
		{"abcdef", 2 * 7, ""},
	}
	for _, tt := range tests {
		if got := Truncate(mono, tt.s, tt.maxWidth); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxWidth, got, tt.want)
		}
	}
}

func TestPosition(t *testing.T) {
	box := image.Rect(10, 20, 110, 70)
	tests := []struct {
		align, valign Align
		want          image.Point
	}{
		{Center, Center, image.Pt(50, 40)},
		{Start, Top, image.Pt(10, 20)},
		{End, Bottom, image.Pt(90, 60)},
	}
	for _, tt := range tests {
		if got := Position(box, 20, 10, tt.align, tt.valign); got != tt.want {
			t.Errorf("Position(%v, %v) = %v, want %v", tt.align, tt.valign, got, tt.want)
		}
	}
}

func TestParseAlign(t *testing.T) {
	for in, want := range map[string]Align{"left": Start, "TOP": Start, "right": End, "bottom": End, "center": Center, "": Center, "diagonal": Center} {
		if got := ParseAlign(in); got != want {
			t.Errorf("ParseAlign(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFaceFallsBack(t *testing.T) {
	f := Face("/nonexistent/font.ttf", 18)
	if f == nil {
		t.Fatal("Face returned nil")
	}
	if Face("/nonexistent/font.ttf", 18) != f {
		t.Error("face was not cached")
	}
	if LineHeight(f) <= 0 {
		t.Errorf("line height = %d", LineHeight(f))
	}
}

func TestPlaceholderDrawsInsideBox(t *testing.T) {
	img := NewCanvas(200, 150)
	box := image.Rect(20, 20, 180, 130)
	Placeholder(img, box, mono, "Toggl API key is invalid", color.Black)

	inside, outside := 0, 0
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{255, 255, 255, 255}) {
				continue
			}
			if image.Pt(x, y).In(box) {
				inside++
			} else {
				outside++
			}
		}
	}
	if inside == 0 {
		t.Error("placeholder drew nothing")
	}
	if outside != 0 {
		t.Errorf("placeholder drew %d pixels outside its box", outside)
	}
}

func TestFitCropSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	got := FitCrop(src, 50, 80)
	if got.Bounds().Dx() != 50 || got.Bounds().Dy() != 80 {
		t.Errorf("FitCrop bounds = %v, want 50x80", got.Bounds())
	}
}

func TestInset(t *testing.T) {
	if got := Inset(image.Rect(0, 0, 100, 50), 10); got != image.Rect(10, 10, 90, 40) {
		t.Errorf("Inset = %v", got)
	}
	if got := Inset(image.Rect(0, 0, 10, 10), 6); !got.Empty() {
		t.Errorf("over-inset = %v, want empty", got)
	}
}
