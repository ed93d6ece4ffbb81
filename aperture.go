package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
)

// UpdateStatus describes the outcome of the most recent update.
type UpdateStatus int

const (
	StatusIdle UpdateStatus = iota
	StatusOK
	StatusCaptureFailed
	StatusDegenerateAperture
)

func (s UpdateStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusOK:
		return "ok"
	case StatusCaptureFailed:
		return "capture failed"
	case StatusDegenerateAperture:
		return "empty aperture"
	default:
		return fmt.Sprintf("UpdateStatus(%d)", int(s))
	}
}

// ApertureDelegate is told about every attempted update, failed ones
// included. Check Status and Err to tell them apart.
type ApertureDelegate interface {
	ApertureDidUpdate(a *Aperture)
}

// ApertureDelegateFunc adapts a function to ApertureDelegate.
type ApertureDelegateFunc func(a *Aperture)

func (f ApertureDelegateFunc) ApertureDidUpdate(a *Aperture) { f(a) }

const (
	DefaultApertureSize = 8
	DefaultZoomLevel    = 4
	DefaultPreviewSize  = 64
	MaxZoomLevel        = 32
)

// ApertureSnapshot is a consistent copy of an Aperture's published state.
type ApertureSnapshot struct {
	Image        *CapturedImage
	Offset       image.Point
	ScaleFactor  float64
	ApertureRect image.Rectangle
	Color        LabColor
	Status       UpdateStatus
	Err          error
}

// Aperture samples the screen around the cursor and reduces the pixels
// under its aperture to an L*a*b* color.
//
// Update may run on any goroutine. Its result is committed atomically and
// an update that finishes after a newer one has committed is discarded.
type Aperture struct {
	tracker  *CursorTracker
	capturer Capturer
	sub      Subscription
	pending  chan struct{}

	mu           sync.Mutex
	delegate     ApertureDelegate
	options      CaptureOptions
	apertureSize int
	zoomLevel    int
	previewSize  int
	continuous   bool

	image        *CapturedImage
	offset       image.Point
	scaleFactor  float64
	apertureRect image.Rectangle
	color        LabColor
	status       UpdateStatus
	err          error

	started   uint64
	committed uint64
}

// NewAperture creates an aperture in on-demand mode and subscribes it to
// tracker. The subscription does not keep the aperture alive.
func NewAperture(tracker *CursorTracker, capturer Capturer) *Aperture {
	a := &Aperture{
		tracker:      tracker,
		capturer:     capturer,
		pending:      make(chan struct{}, 1),
		apertureSize: DefaultApertureSize,
		zoomLevel:    DefaultZoomLevel,
		previewSize:  DefaultPreviewSize,
		scaleFactor:  1,
	}
	a.sub = Subscribe(tracker, a)
	return a
}

// Close detaches the aperture from its tracker.
func (a *Aperture) Close() {
	a.sub.Cancel()
}

// Update runs one sampling cycle: capture around the cursor, map the
// aperture into the image, reduce it, commit, and notify the delegate.
// On failure the previous image and color are kept and the delegate is
// still notified.
func (a *Aperture) Update(ctx context.Context) {
	a.mu.Lock()
	a.started++
	gen := a.started
	size, zoom, preview := a.apertureSize, a.zoomLevel, a.previewSize
	opts := a.options
	prevColor := a.color
	a.mu.Unlock()

	state := a.tracker.State()
	rect := captureRect(state.Position, size, preview, zoom)
	displays := a.tracker.Displays()
	img, err := CaptureRegion(ctx, a.capturer, displays, rect, opts)

	var (
		apRect image.Rectangle
		color  = prevColor
		ok     bool
	)
	if err == nil {
		cursor := toPixels(state.Position.Sub(img.Source().Min), img.ScaleFactor())
		apRect = apertureRectFor(img.Bounds(), cursor, size, zoom, img.ScaleFactor())
		// Pixels outside the cursor's display are filler, not screen content.
		if d, found := displayByID(displays, state.DisplayID); found {
			apRect = apRect.Intersect(pixelRect(d.Bounds, img.Source().Min, img.ScaleFactor()))
		}
		color, ok = AverageLab(img, apRect, prevColor)
	}

	a.mu.Lock()
	if gen < a.committed {
		a.mu.Unlock()
		slog.Debug("dropping stale aperture update", "generation", gen)
		return
	}
	a.committed = gen
	switch {
	case err != nil:
		a.status = StatusCaptureFailed
		a.err = err
		slog.Debug("capture failed", "rect", rect, "error", err)
	default:
		a.image = img
		a.offset = img.Source().Min
		a.scaleFactor = img.ScaleFactor()
		a.apertureRect = apRect
		a.color = color
		a.err = nil
		a.status = StatusOK
		if !ok {
			a.status = StatusDegenerateAperture
		}
	}
	delegate := a.delegate
	a.mu.Unlock()

	if delegate != nil {
		delegate.ApertureDidUpdate(a)
	}
}

// Request asks for an update without running it. Requests made while one
// is already pending are merged.
func (a *Aperture) Request() {
	select {
	case a.pending <- struct{}{}:
	default:
	}
}

// Pending delivers one value per merged Request.
func (a *Aperture) Pending() <-chan struct{} {
	return a.pending
}

// CursorMovedToLocation requests an update in continuous mode.
func (a *Aperture) CursorMovedToLocation(image.Point) {
	if a.UpdatesContinuously() {
		a.Request()
	}
}

// CursorMovedToDisplay requests an update in continuous mode.
func (a *Aperture) CursorMovedToDisplay(DisplayID) {
	if a.UpdatesContinuously() {
		a.Request()
	}
}

// Lab returns the last computed color without sampling again.
func (a *Aperture) Lab() (l, aa, b float64) {
	c := a.Color()
	return c.L, c.A, c.B
}

func (a *Aperture) Color() LabColor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.color
}

// Snapshot returns image, geometry, color and status from the same update.
func (a *Aperture) Snapshot() ApertureSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return ApertureSnapshot{
		Image:        a.image,
		Offset:       a.offset,
		ScaleFactor:  a.scaleFactor,
		ApertureRect: a.apertureRect,
		Color:        a.color,
		Status:       a.status,
		Err:          a.err,
	}
}

func (a *Aperture) Image() *CapturedImage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.image
}

func (a *Aperture) Offset() image.Point {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}

func (a *Aperture) ScaleFactor() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scaleFactor
}

func (a *Aperture) ApertureRect() image.Rectangle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apertureRect
}

func (a *Aperture) Status() UpdateStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *Aperture) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *Aperture) SetDelegate(d ApertureDelegate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delegate = d
}

func (a *Aperture) SetCaptureOptions(opts CaptureOptions) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.options = opts
}

func (a *Aperture) ApertureSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.apertureSize
}

// SetApertureSize sets the sample window side in points, at least 1.
// It does not trigger an update.
func (a *Aperture) SetApertureSize(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apertureSize = max(n, 1)
}

func (a *Aperture) ZoomLevel() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.zoomLevel
}

// SetZoomLevel sets the magnification, clamped to [1, MaxZoomLevel].
// It does not trigger an update.
func (a *Aperture) SetZoomLevel(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.zoomLevel = min(max(n, 1), MaxZoomLevel)
}

func (a *Aperture) PreviewSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.previewSize
}

// SetPreviewSize sets the side, in points, of the magnified preview.
func (a *Aperture) SetPreviewSize(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.previewSize = max(n, 1)
}

func (a *Aperture) UpdatesContinuously() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.continuous
}

func (a *Aperture) SetUpdatesContinuously(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.continuous = on
}
