package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/kbinani/screenshot"
	"golang.org/x/sync/errgroup"
)

// nativeCapturer captures through kbinani/screenshot (CoreGraphics, GDI or X11).
type nativeCapturer struct{}

func (nativeCapturer) Capture(ctx context.Context, req CaptureRequest) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(req.Rect)
	if err != nil {
		return nil, fmt.Errorf("capturing screen: %w: %w", ErrSystemDenied, err)
	}
	return img, nil
}

func (nativeCapturer) Close() error { return nil }

// screenDisplays enumerates displays with kbinani/screenshot. The library
// reports bounds in points but not scale factors, so each display's factor is
// probed once with a one-point capture and cached by bounds.
type screenDisplays struct {
	count  func() int
	bounds func(int) image.Rectangle
	probe  func(image.Rectangle) (*image.RGBA, error)

	mu     sync.Mutex
	scales map[image.Rectangle]float64
}

func newScreenDisplays() *screenDisplays {
	return &screenDisplays{
		count:  screenshot.NumActiveDisplays,
		bounds: screenshot.GetDisplayBounds,
		probe:  screenshot.CaptureRect,
		scales: make(map[image.Rectangle]float64),
	}
}

func (s *screenDisplays) Displays() ([]Display, error) {
	n := s.count()
	if n == 0 {
		return nil, fmt.Errorf("enumerating displays: %w", ErrNoDisplay)
	}

	displays := make([]Display, n)
	var g errgroup.Group
	for i := range n {
		b := s.bounds(i)
		displays[i] = Display{ID: DisplayID(i), Bounds: b}
		g.Go(func() error {
			scale, err := s.scaleFor(b)
			displays[i].ScaleFactor = scale
			if err != nil {
				return fmt.Errorf("probing display %d scale: %w", i, err)
			}
			return nil
		})
	}
	// A failed probe leaves that display at 1x rather than failing enumeration.
	if err := g.Wait(); err != nil {
		slog.Debug("scale probe failed, assuming 1x", "error", err)
	}
	return displays, nil
}

// scaleFor returns the cached scale for b, probing it on first use. When the
// probe fails, 1 is cached and returned along with the error.
func (s *screenDisplays) scaleFor(b image.Rectangle) (float64, error) {
	s.mu.Lock()
	scale, ok := s.scales[b]
	s.mu.Unlock()
	if ok {
		return scale, nil
	}

	scale = 1
	img, err := s.probe(image.Rectangle{Min: b.Min, Max: b.Min.Add(image.Pt(1, 1))})
	if err == nil && img.Rect.Dx() > 0 {
		scale = float64(img.Rect.Dx())
	}

	s.mu.Lock()
	s.scales[b] = scale
	s.mu.Unlock()
	return scale, err
}
