package main

import "image"

// DisplayID identifies an active display. It is the display's index in the
// platform's enumeration order and is only stable until the layout changes.
type DisplayID int

// NoDisplay is reported before the cursor has been seen on any display.
const NoDisplay DisplayID = -1

// Display describes one active monitor.
type Display struct {
	ID          DisplayID
	Bounds      image.Rectangle // global screen points
	ScaleFactor float64         // pixels per point
}

// DisplayProvider enumerates the active displays.
type DisplayProvider interface {
	Displays() ([]Display, error)
}

// displayAt returns the display containing p.
func displayAt(displays []Display, p image.Point) (Display, bool) {
	for _, d := range displays {
		if p.In(d.Bounds) {
			return d, true
		}
	}
	return Display{}, false
}

// displayByID returns the display with the given ID.
func displayByID(displays []Display, id DisplayID) (Display, bool) {
	for _, d := range displays {
		if d.ID == id {
			return d, true
		}
	}
	return Display{}, false
}

// unionBounds returns the smallest rectangle covering every display. On
// layouts with displays of different sizes it includes areas no display
// covers; backends fill those with black.
func unionBounds(displays []Display) image.Rectangle {
	var u image.Rectangle
	for _, d := range displays {
		u = u.Union(d.Bounds)
	}
	return u
}

// overlapsAny reports whether r shares any area with an active display.
func overlapsAny(displays []Display, r image.Rectangle) bool {
	for _, d := range displays {
		if r.Overlaps(d.Bounds) {
			return true
		}
	}
	return false
}
