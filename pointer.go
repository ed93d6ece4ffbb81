package main

import (
	"image"

	"github.com/go-vgo/robotgo"
)

// robotPointer reads and warps the system pointer through robotgo.
type robotPointer struct{}

func (robotPointer) Position() image.Point {
	x, y := robotgo.GetMousePos()
	return image.Pt(x, y)
}

func (robotPointer) Warp(p image.Point) {
	robotgo.Move(p.X, p.Y)
}
