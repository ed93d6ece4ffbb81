package main

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xdraw "golang.org/x/image/draw"
)

// renderPreview draws img magnified into a cols x rows block of terminal
// cells. Each cell shows two pixels with an upper half block: foreground for
// the top pixel, background for the bottom one. The aperture is outlined
// with inverted colors.
func renderPreview(img *CapturedImage, aperture image.Rectangle, cols, rows int) string {
	if cols <= 0 || rows <= 0 {
		return ""
	}
	if img == nil || img.Bounds().Empty() {
		blank := strings.Repeat(" ", cols)
		return strings.TrimSuffix(strings.Repeat(blank+"\n", rows), "\n")
	}

	dst := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	xdraw.NearestNeighbor.Scale(dst, dst.Rect, img, img.Bounds(), xdraw.Src, nil)
	if !aperture.Empty() {
		outline(dst, scaleRect(aperture, img.Bounds(), dst.Rect))
	}

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top, bottom := dst.RGBAAt(x, 2*y), dst.RGBAAt(x, 2*y+1)
			sb.WriteString(lipgloss.NewStyle().
				Foreground(cellColor(top)).
				Background(cellColor(bottom)).
				Render("▀"))
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func cellColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(RGB{R: c.R, G: c.G, B: c.B}.String())
}

// scaleRect maps r from the from space into the to space, rounding outward
// so a small rectangle never vanishes.
func scaleRect(r, from, to image.Rectangle) image.Rectangle {
	if from.Empty() {
		return image.Rectangle{}
	}
	sx := float64(to.Dx()) / float64(from.Dx())
	sy := float64(to.Dy()) / float64(from.Dy())
	out := image.Rect(
		to.Min.X+int(math.Floor(float64(r.Min.X-from.Min.X)*sx)),
		to.Min.Y+int(math.Floor(float64(r.Min.Y-from.Min.Y)*sy)),
		to.Min.X+int(math.Ceil(float64(r.Max.X-from.Min.X)*sx)),
		to.Min.Y+int(math.Ceil(float64(r.Max.Y-from.Min.Y)*sy)),
	)
	return out.Intersect(to)
}

// outline inverts the border pixels of r.
func outline(img *image.RGBA, r image.Rectangle) {
	if r.Empty() {
		return
	}
	invert := func(x, y int) {
		c := img.RGBAAt(x, y)
		img.SetRGBA(x, y, color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: 255})
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		invert(x, r.Min.Y)
		if r.Dy() > 1 {
			invert(x, r.Max.Y-1)
		}
	}
	for y := r.Min.Y + 1; y < r.Max.Y-1; y++ {
		invert(r.Min.X, y)
		if r.Dx() > 1 {
			invert(r.Max.X-1, y)
		}
	}
}
