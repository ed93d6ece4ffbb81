package main

import (
	"fmt"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB holds an 8-bit sRGB color value.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// LabColor is a CIE 1976 L*a*b* color relative to the D65 white point.
// L is in [0, 100]; A and B usually fall within [-128, 127].
type LabColor struct {
	L, A, B float64
}

func (c LabColor) String() string {
	return fmt.Sprintf("L* %.2f  a* %.2f  b* %.2f", c.L, c.A, c.B)
}

// go-colorful reports Lab with L in [0, 1].
const labScale = 100

func (c LabColor) colorful() colorful.Color {
	return colorful.Lab(c.L/labScale, c.A/labScale, c.B/labScale).Clamped()
}

// RGB converts back to 8-bit sRGB, clamping colors outside the gamut.
func (c LabColor) RGB() RGB {
	r, g, b := c.colorful().RGB255()
	return RGB{R: r, G: g, B: b}
}

// Hex returns the clamped sRGB value as #rrggbb.
func (c LabColor) Hex() string {
	return c.colorful().Hex()
}

// DeltaE returns the CIE76 distance between two colors.
func (c LabColor) DeltaE(o LabColor) float64 {
	dl, da, db := c.L-o.L, c.A-o.A, c.B-o.B
	return math.Sqrt(dl*dl + da*da + db*db)
}

// linearTable maps an 8-bit sRGB channel to its gamma-decoded value.
var linearTable = func() [256]float64 {
	var t [256]float64
	for i := range t {
		v := float64(i) / 255
		t[i], _, _ = colorful.Color{R: v, G: v, B: v}.LinearRgb()
	}
	return t
}()

// labFromLinear converts linear sRGB to L*a*b* via XYZ under D65.
func labFromLinear(r, g, b float64) LabColor {
	x, y, z := colorful.LinearRgbToXyz(r, g, b)
	l, a, bb := colorful.XyzToLab(x, y, z)
	return LabColor{L: l * labScale, A: a * labScale, B: bb * labScale}
}

// LabFromRGB converts a single 8-bit sRGB color to L*a*b*.
func LabFromRGB(r, g, b uint8) LabColor {
	return labFromLinear(linearTable[r], linearTable[g], linearTable[b])
}

// AverageLab averages the pixels of img inside aperture and returns the mean
// as L*a*b*. The aperture is given in image pixels and is clamped to the
// image bounds. When nothing is left after clamping, prev is returned
// unchanged and ok is false.
//
// Channel sums are accumulated in linear light, so the mean of a black and a
// white pixel is a mid-gray in luminance rather than sRGB 127.
func AverageLab(img *CapturedImage, aperture image.Rectangle, prev LabColor) (c LabColor, ok bool) {
	if img == nil {
		return prev, false
	}
	rect := aperture.Intersect(img.Bounds())
	if rect.Empty() {
		return prev, false
	}

	pix := img.rgba
	var rSum, gSum, bSum float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := pix.PixOffset(rect.Min.X, y)
		for x := rect.Min.X; x < rect.Max.X; x++ {
			rSum += linearTable[pix.Pix[off]]
			gSum += linearTable[pix.Pix[off+1]]
			bSum += linearTable[pix.Pix[off+2]]
			off += 4
		}
	}

	n := float64(rect.Dx() * rect.Dy())
	return labFromLinear(rSum/n, gSum/n, bSum/n), true
}
