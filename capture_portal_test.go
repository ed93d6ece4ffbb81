package main

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestSenderToToken(t *testing.T) {
	if got := senderToToken(":1.42"); got != "1_42" {
		t.Errorf("expected 1_42, got %q", got)
	}
}

func TestFileFromURI(t *testing.T) {
	got, err := fileFromURI("file:///home/me/Pictures/Screenshot%20from%20now.png")
	if err != nil {
		t.Fatalf("fileFromURI: %v", err)
	}
	if got != "/home/me/Pictures/Screenshot from now.png" {
		t.Errorf("unexpected path %q", got)
	}

	if _, err := fileFromURI("https://example.com/shot.png"); err == nil {
		t.Error("expected error for non-file uri")
	}
}

func TestCropToRegion_ScalesFromScreen(t *testing.T) {
	// 2x full-screen image of a 100x50 point screen starting at (-100, 0).
	full := image.NewRGBA(image.Rect(0, 0, 200, 100))
	full.SetRGBA(20, 10, color.RGBA{R: 255, A: 255})

	out := cropToRegion(full, image.Rect(-90, 5, -80, 15), image.Rect(-100, 0, 0, 50))
	if out.Rect != image.Rect(0, 0, 20, 20) {
		t.Fatalf("expected 20x20 crop, got %v", out.Rect)
	}
	if got := out.RGBAAt(0, 0); got.R != 255 {
		t.Errorf("expected marked pixel at crop origin, got %v", got)
	}
}

func TestReadPNG_ConvertsToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(2, 1, color.NRGBA{G: 200, A: 255})

	path := filepath.Join(t.TempDir(), "shot.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := readPNG(path)
	if err != nil {
		t.Fatalf("readPNG: %v", err)
	}
	if img.Rect != image.Rect(0, 0, 3, 2) {
		t.Errorf("unexpected bounds %v", img.Rect)
	}
	if got := img.RGBAAt(2, 1); got.G != 200 {
		t.Errorf("expected green pixel, got %v", got)
	}
}

func TestWaitForResponse(t *testing.T) {
	path := dbus.ObjectPath("/org/freedesktop/portal/desktop/request/1_42/t")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := make(chan *dbus.Signal, 3)
	ch <- &dbus.Signal{Path: "/some/other/request", Body: []interface{}{uint32(0), map[string]dbus.Variant{}}}
	ch <- &dbus.Signal{Path: path, Body: []interface{}{uint32(0), map[string]dbus.Variant{
		"uri": dbus.MakeVariant("file:///tmp/x.png"),
	}}}

	res, err := waitForResponse(ctx, ch, path)
	if err != nil {
		t.Fatalf("waitForResponse: %v", err)
	}
	if res["uri"].Value() != "file:///tmp/x.png" {
		t.Errorf("unexpected results %v", res)
	}

	ch <- &dbus.Signal{Path: path, Body: []interface{}{uint32(1), map[string]dbus.Variant{}}}
	if _, err := waitForResponse(ctx, ch, path); !errors.Is(err, ErrSystemDenied) {
		t.Errorf("expected ErrSystemDenied for refused request, got %v", err)
	}
}
