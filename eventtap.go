package main

import (
	"context"

	gohook "github.com/robotn/gohook"
)

// WatchPointer installs a global mouse hook and signals on the returned
// channel whenever the pointer moves. Bursts of motion collapse into a single
// pending signal, so a slow reader never backs up the hook. The channel is
// closed once ctx is done.
//
// The hook only wakes the caller; the caller still polls the tracker, which
// keeps listener notification on its own goroutine.
func WatchPointer(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		events := gohook.Start()
		defer gohook.End()
		forwardMotion(ctx, events, out)
	}()
	return out
}

func forwardMotion(ctx context.Context, events <-chan gohook.Event, out chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind != gohook.MouseMove && ev.Kind != gohook.MouseDrag {
				continue
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}
