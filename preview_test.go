package main

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestRenderPreview_CellGrid(t *testing.T) {
	img := solidImage(20, 20, color.RGBA{R: 30, G: 60, B: 90, A: 255})

	out := renderPreview(img, image.Rect(8, 8, 12, 12), 10, 4)

	if n := strings.Count(out, "▀"); n != 40 {
		t.Errorf("expected 40 cells, got %d", n)
	}
	if n := len(strings.Split(out, "\n")); n != 4 {
		t.Errorf("expected 4 lines, got %d", n)
	}
}

func TestRenderPreview_NoImage(t *testing.T) {
	out := renderPreview(nil, image.Rectangle{}, 6, 3)
	if out != "      \n      \n      " {
		t.Errorf("expected blank block, got %q", out)
	}
	if renderPreview(nil, image.Rectangle{}, 0, 3) != "" {
		t.Error("expected empty string for zero width")
	}
}

func TestScaleRect(t *testing.T) {
	from := image.Rect(0, 0, 100, 100)
	to := image.Rect(0, 0, 10, 10)

	if got := scaleRect(image.Rect(45, 45, 55, 55), from, to); got != image.Rect(4, 4, 6, 6) {
		t.Errorf("expected (4,4)-(6,6), got %v", got)
	}
	if got := scaleRect(image.Rect(50, 50, 51, 51), from, to); got.Empty() {
		t.Error("expected a one-pixel aperture to stay visible")
	}
	if got := scaleRect(image.Rect(90, 90, 200, 200), from, to); got != image.Rect(9, 9, 10, 10) {
		t.Errorf("expected clamped rectangle, got %v", got)
	}
}

func TestOutline(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	outline(img, image.Rect(1, 1, 4, 4))

	white := color.RGBA{255, 255, 255, 255}
	for _, p := range []image.Point{{1, 1}, {3, 1}, {1, 3}, {3, 3}, {2, 1}, {1, 2}} {
		if got := img.RGBAAt(p.X, p.Y); got != white {
			t.Errorf("expected border pixel %v inverted, got %v", p, got)
		}
	}
	if got := img.RGBAAt(2, 2); got != (color.RGBA{}) {
		t.Errorf("expected interior untouched, got %v", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("expected outside untouched, got %v", got)
	}
}
