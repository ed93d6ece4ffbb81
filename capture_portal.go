package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	xdraw "golang.org/x/image/draw"
)

const (
	portalDest      = "org.freedesktop.portal.Desktop"
	portalPath      = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"

	portalTimeout = 30 * time.Second // interactive mode waits for the user
)

// portalCapturer takes screenshots through the XDG Desktop Portal, the only
// route to pixels on most Wayland compositors. The portal always returns the
// whole virtual screen, so each capture is cropped to the requested region.
type portalCapturer struct {
	conn *dbus.Conn
	seq  atomic.Uint64
}

func newPortalCapturer() (Capturer, string, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, "", fmt.Errorf("connecting to session bus: %w", err)
	}
	if len(conn.Names()) == 0 {
		conn.Close()
		return nil, "", fmt.Errorf("session bus assigned no unique name")
	}
	return &portalCapturer{conn: conn}, "Portal", nil
}

func (c *portalCapturer) Capture(ctx context.Context, req CaptureRequest) (*image.RGBA, error) {
	uri, err := c.screenshot(ctx, req.Options.Interactive)
	if err != nil {
		return nil, err
	}

	path, err := fileFromURI(uri)
	if err != nil {
		return nil, err
	}
	full, err := readPNG(path)
	// The portal writes a file per request; don't leave them behind.
	os.Remove(path)
	if err != nil {
		return nil, err
	}

	return cropToRegion(full, req.Rect, req.Screen), nil
}

func (c *portalCapturer) Close() error {
	return c.conn.Close()
}

// screenshot asks the portal for a screenshot and returns the file URI
// from its Response signal.
func (c *portalCapturer) screenshot(ctx context.Context, interactive bool) (string, error) {
	sender := senderToToken(c.conn.Names()[0])
	token := fmt.Sprintf("labmeter_shot_%d", c.seq.Add(1))
	reqPath := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/portal/desktop/request/%s/%s", sender, token))

	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(reqPath),
		dbus.WithMatchInterface(requestIface),
		dbus.WithMatchMember("Response"),
	}
	if err := c.conn.AddMatchSignal(match...); err != nil {
		return "", fmt.Errorf("subscribing to portal response: %w", err)
	}
	defer c.conn.RemoveMatchSignal(match...)

	sigCh := make(chan *dbus.Signal, 1)
	c.conn.Signal(sigCh)
	defer c.conn.RemoveSignal(sigCh)

	ctx, cancel := context.WithTimeout(ctx, portalTimeout)
	defer cancel()

	portal := c.conn.Object(portalDest, dbus.ObjectPath(portalPath))
	call := portal.CallWithContext(ctx, screenshotIface+".Screenshot", 0, "", map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(token),
		"interactive":  dbus.MakeVariant(interactive),
	})
	if call.Err != nil {
		return "", fmt.Errorf("portal Screenshot: %w: %w", ErrSystemDenied, call.Err)
	}

	resp, err := waitForResponse(ctx, sigCh, reqPath)
	if err != nil {
		return "", err
	}

	v, ok := resp["uri"]
	if !ok {
		return "", fmt.Errorf("portal Screenshot: no uri in response: %w", ErrNoFrame)
	}
	uri, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("portal Screenshot: unexpected uri type %T", v.Value())
	}
	return uri, nil
}

// waitForResponse waits for the Response signal on path and returns its
// results map. A non-zero response code means the user or the compositor
// refused the request.
func waitForResponse(ctx context.Context, ch <-chan *dbus.Signal, path dbus.ObjectPath) (map[string]dbus.Variant, error) {
	for {
		select {
		case sig := <-ch:
			if sig == nil {
				return nil, fmt.Errorf("signal channel closed")
			}
			if sig.Path != path || len(sig.Body) < 2 {
				continue
			}
			code, ok := sig.Body[0].(uint32)
			if !ok {
				continue
			}
			if code != 0 {
				return nil, fmt.Errorf("portal request refused (code %d): %w", code, ErrSystemDenied)
			}
			results, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				return nil, fmt.Errorf("unexpected response type %T", sig.Body[1])
			}
			return results, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for portal response: %w", ctx.Err())
		}
	}
}

// senderToToken converts a D-Bus sender name like ":1.42" to "1_42" for use
// in request object paths.
func senderToToken(sender string) string {
	s := strings.TrimPrefix(sender, ":")
	return strings.ReplaceAll(s, ".", "_")
}

// fileFromURI returns the local path of a file:// URI.
func fileFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parsing screenshot uri: %w", err)
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("unsupported screenshot uri %q", uri)
	}
	return u.Path, nil
}

func readPNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening screenshot: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Rect, img, b.Min, xdraw.Src)
	return rgba, nil
}

// cropToRegion copies the part of a full-screen image covering region.
// Both rectangles are in screen points; the image's scale factor is taken
// from its width relative to screen.
func cropToRegion(full *image.RGBA, region, screen image.Rectangle) *image.RGBA {
	scale := 1.0
	if screen.Dx() > 0 {
		scale = float64(full.Rect.Dx()) / float64(screen.Dx())
	}
	px := pixelRect(region, screen.Min, scale).Add(full.Rect.Min).Intersect(full.Rect)

	out := image.NewRGBA(image.Rect(0, 0, px.Dx(), px.Dy()))
	for y := 0; y < px.Dy(); y++ {
		src := full.PixOffset(px.Min.X, px.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+px.Dx()*4], full.Pix[src:src+px.Dx()*4])
	}
	return out
}
