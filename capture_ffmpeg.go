package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
)

// ffmpegCapturer grabs one X11 frame per call with ffmpeg's x11grab device.
type ffmpegCapturer struct {
	display string
}

func newFFmpegCapturer() (Capturer, string, error) {
	if !hasExecutable("ffmpeg") {
		return nil, "", fmt.Errorf("ffmpeg not found")
	}

	display := os.Getenv("DISPLAY")
	if display == "" {
		return nil, "", fmt.Errorf("DISPLAY not set")
	}

	return &ffmpegCapturer{display: display}, "FFmpeg", nil
}

func ffmpegArgs(display string, rect image.Rectangle, opts CaptureOptions) []string {
	drawMouse := "0"
	if opts.IncludeCursor {
		drawMouse = "1"
	}
	if !strings.Contains(display, ".") {
		display += ".0"
	}
	return []string{
		"-nostdin",
		"-loglevel", "error",
		"-f", "x11grab",
		"-draw_mouse", drawMouse,
		"-video_size", fmt.Sprintf("%dx%d", rect.Dx(), rect.Dy()),
		"-i", fmt.Sprintf("%s+%d,%d", display, rect.Min.X, rect.Min.Y),
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}
}

func (c *ffmpegCapturer) Capture(ctx context.Context, req CaptureRequest) (*image.RGBA, error) {
	w, h := req.Rect.Dx(), req.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, ErrNoFrame
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", ffmpegArgs(c.display, req.Rect, req.Options)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg x11grab: %w: %v: %s", ErrSystemDenied, err, strings.TrimSpace(stderr.String()))
	}
	if len(out) < w*h*3 {
		return nil, fmt.Errorf("ffmpeg: short frame (%d bytes): %w", len(out), ErrNoFrame)
	}
	return rgbaFromRGB24(out, w, h), nil
}

func (c *ffmpegCapturer) Close() error { return nil }

// rgbaFromRGB24 expands a packed RGB24 buffer into an opaque RGBA image.
func rgbaFromRGB24(buf []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		src, dst := i*3, i*4
		img.Pix[dst] = buf[src]
		img.Pix[dst+1] = buf[src+1]
		img.Pix[dst+2] = buf[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img
}
