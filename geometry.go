package main

import (
	"image"
	"math"
)

// CaptureMargin is the slack in points added on each side of the capture
// square so that zoom and pan changes stay inside the last screenshot.
const CaptureMargin = 4

// captureRect returns the square, in screen points, to capture around
// center. The side covers the larger of the aperture and the preview at the
// given zoom, plus CaptureMargin on each side. The side is always even, so
// center sits exactly in the middle.
func captureRect(center image.Point, apertureSize, previewSize, zoom int) image.Rectangle {
	if zoom < 1 {
		zoom = 1
	}
	side := int(math.Ceil(float64(max(apertureSize, previewSize, 1))/float64(zoom))) + 2*CaptureMargin
	side += side % 2

	half := side / 2
	origin := center.Sub(image.Pt(half, half))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}
}

// toPixels maps a point relative to the capture origin into image pixels.
func toPixels(p image.Point, scale float64) image.Point {
	return image.Pt(
		int(math.Round(float64(p.X)*scale)),
		int(math.Round(float64(p.Y)*scale)),
	)
}

// pixelRect maps r, in screen points, into the pixels of an image whose
// top-left corner sits at origin.
func pixelRect(r image.Rectangle, origin image.Point, scale float64) image.Rectangle {
	return image.Rectangle{
		Min: toPixels(r.Min.Sub(origin), scale),
		Max: toPixels(r.Max.Sub(origin), scale),
	}
}

// apertureSide returns the aperture's side length in image pixels.
func apertureSide(apertureSize, zoom int, scale float64) int {
	if zoom < 1 {
		zoom = 1
	}
	side := int(math.Round(float64(apertureSize) / float64(zoom) * scale))
	return max(side, 1)
}

// apertureRectFor centers the aperture on the cursor's pixel position and
// clamps it to the image bounds. The result may be empty when the cursor
// lies outside the captured image.
func apertureRectFor(bounds image.Rectangle, cursor image.Point, apertureSize, zoom int, scale float64) image.Rectangle {
	side := apertureSide(apertureSize, zoom, scale)
	origin := cursor.Sub(image.Pt(side/2, side/2))
	r := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}
	return r.Intersect(bounds)
}
