package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"os/exec"
)

// ErrNoDisplay is returned when a capture rectangle intersects no active display.
var ErrNoDisplay = errors.New("no active display under capture rectangle")

// ErrSystemDenied is returned when the platform refuses to hand out pixels,
// e.g. missing screen-recording permission or a rejected portal request.
var ErrSystemDenied = errors.New("screen capture denied by system")

// ErrInvalidRect is returned for rectangles with negative width or height.
var ErrInvalidRect = errors.New("invalid capture rectangle")

// ErrNoFrame is returned when a backend produced no usable image.
var ErrNoFrame = errors.New("no frame captured")

// CaptureOptions controls what ends up in a screenshot.
type CaptureOptions struct {
	// IncludeCursor draws the pointer into the capture where the backend
	// supports it.
	IncludeCursor bool
	// Interactive lets the desktop portal show its own confirmation dialog.
	Interactive bool
}

// CaptureRequest is what a backend receives. Rect is already clamped to
// Screen, the union of all active displays, both in global screen points.
type CaptureRequest struct {
	Rect    image.Rectangle
	Screen  image.Rectangle
	Options CaptureOptions
}

// Capturer grabs a region of the screen.
type Capturer interface {
	Capture(ctx context.Context, req CaptureRequest) (*image.RGBA, error)
	Close() error
}

// CapturedImage is an immutable screenshot of a screen region.
// It implements image.Image so it can be handed to drawing code read-only.
type CapturedImage struct {
	rgba   *image.RGBA
	scale  float64
	source image.Rectangle
}

// newCapturedImage takes ownership of rgba. The pixel origin is moved to
// (0, 0) so image coordinates start at the capture's top-left corner.
func newCapturedImage(rgba *image.RGBA, source image.Rectangle) *CapturedImage {
	norm := *rgba
	norm.Rect = rgba.Rect.Sub(rgba.Rect.Min)

	scale := 1.0
	if source.Dx() > 0 && norm.Rect.Dx() > 0 {
		scale = float64(norm.Rect.Dx()) / float64(source.Dx())
	}
	return &CapturedImage{rgba: &norm, scale: scale, source: source}
}

// Width returns the width in pixels.
func (c *CapturedImage) Width() int { return c.rgba.Rect.Dx() }

// Height returns the height in pixels.
func (c *CapturedImage) Height() int { return c.rgba.Rect.Dy() }

// ScaleFactor returns pixels per point of this capture.
func (c *CapturedImage) ScaleFactor() float64 { return c.scale }

// Source returns the captured region in global screen points.
func (c *CapturedImage) Source() image.Rectangle { return c.source }

func (c *CapturedImage) Bounds() image.Rectangle { return c.rgba.Rect }

func (c *CapturedImage) ColorModel() color.Model { return color.RGBAModel }

func (c *CapturedImage) At(x, y int) color.Color { return c.rgba.RGBAAt(x, y) }

// RGBAAt returns the pixel at (x, y).
func (c *CapturedImage) RGBAAt(x, y int) color.RGBA { return c.rgba.RGBAAt(x, y) }

// CaptureRegion captures rect, given in global screen points, after clamping
// it to the union of the active displays. The returned image's scale factor
// is derived from the pixel size the backend actually delivered.
func CaptureRegion(ctx context.Context, c Capturer, displays []Display, rect image.Rectangle, opts CaptureOptions) (*CapturedImage, error) {
	if rect.Max.X < rect.Min.X || rect.Max.Y < rect.Min.Y {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRect, rect)
	}
	if !overlapsAny(displays, rect) {
		return nil, fmt.Errorf("%w: %v", ErrNoDisplay, rect)
	}

	screen := unionBounds(displays)
	clamped := rect.Intersect(screen)

	img, err := c.Capture(ctx, CaptureRequest{Rect: clamped, Screen: screen, Options: opts})
	if err != nil {
		return nil, err
	}
	if img == nil || img.Rect.Empty() {
		return nil, ErrNoFrame
	}
	return newCapturedImage(img, clamped), nil
}

// NewCapturer returns the requested backend. With "auto" it tries the
// desktop portal on Wayland sessions and falls back to native capture.
func NewCapturer(backend string) (Capturer, string, error) {
	switch backend {
	case "native":
		return nativeCapturer{}, "native", nil
	case "portal":
		return newPortalCapturer()
	case "ffmpeg":
		return newFFmpegCapturer()
	case "", "auto":
	default:
		return nil, "", fmt.Errorf("unknown capture backend %q", backend)
	}

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		c, method, err := newPortalCapturer()
		if err == nil {
			return c, method, nil
		}
		slog.Info("portal capture unavailable, using native", "error", err)
	}
	return nativeCapturer{}, "native", nil
}

// hasExecutable reports whether the named program is on PATH.
func hasExecutable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
