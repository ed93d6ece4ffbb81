package main

import (
	"image"
	"log/slog"
	"slices"
	"sync"
	"weak"
)

// CursorListener receives cursor notifications. Calls happen synchronously
// on the goroutine driving the tracker, so implementations must not block.
type CursorListener interface {
	CursorMovedToLocation(p image.Point)
	CursorMovedToDisplay(id DisplayID)
}

// PointerSource reads and moves the system pointer.
type PointerSource interface {
	Position() image.Point
	Warp(p image.Point)
}

// CursorState is one consistent reading of the cursor.
type CursorState struct {
	Position    image.Point // global screen points
	DisplayID   DisplayID
	ScaleFactor float64
}

type listenerEntry struct {
	id      uint64
	key     any // weak.Pointer of the listener, for Unsubscribe
	resolve func() CursorListener
}

// CursorTracker holds the shared cursor state for a sampling session.
// Update and MovePositionBy are its only writers.
type CursorTracker struct {
	source   PointerSource
	provider DisplayProvider

	mu        sync.Mutex
	state     CursorState
	displays  []Display
	listeners []listenerEntry
	nextID    uint64
}

// NewCursorTracker enumerates the displays and takes an initial reading
// without notifying anyone.
func NewCursorTracker(source PointerSource, provider DisplayProvider) *CursorTracker {
	t := &CursorTracker{
		source:   source,
		provider: provider,
		state:    CursorState{DisplayID: NoDisplay, ScaleFactor: 1},
	}
	if err := t.Refresh(); err != nil {
		slog.Warn("enumerating displays", "error", err)
	}
	t.apply(source.Position())
	return t
}

// Refresh re-enumerates the displays. The previous list is kept on error.
func (t *CursorTracker) Refresh() error {
	displays, err := t.provider.Displays()
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.displays = displays
	t.mu.Unlock()
	return nil
}

// State returns position, display and scale factor from the same tick.
func (t *CursorTracker) State() CursorState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Position returns the latest cursor position.
func (t *CursorTracker) Position() image.Point {
	return t.State().Position
}

// ActiveDisplay returns the display under the cursor and its scale factor.
// Use State when the position must match.
func (t *CursorTracker) ActiveDisplay() (DisplayID, float64) {
	s := t.State()
	return s.DisplayID, s.ScaleFactor
}

// Displays returns a copy of the known displays.
func (t *CursorTracker) Displays() []Display {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.displays)
}

// Update performs one polling tick.
func (t *CursorTracker) Update() {
	t.apply(t.source.Position())
}

// MovePositionBy nudges the cursor by (dx, dy) points and notifies
// listeners exactly as a hardware move would.
func (t *CursorTracker) MovePositionBy(dx, dy int) {
	p := t.Position().Add(image.Pt(dx, dy))
	t.source.Warp(p)
	t.apply(p)
}

func (t *CursorTracker) apply(p image.Point) {
	t.mu.Lock()
	prev := t.state
	next := prev
	next.Position = p

	d, ok := displayAt(t.displays, p)
	if !ok && p != prev.Position {
		// A monitor may have been attached since the last enumeration.
		t.mu.Unlock()
		if err := t.Refresh(); err != nil {
			slog.Debug("refreshing displays", "error", err)
		}
		t.mu.Lock()
		d, ok = displayAt(t.displays, p)
	}
	if ok {
		next.DisplayID = d.ID
		next.ScaleFactor = d.ScaleFactor
	} else {
		slog.Debug("cursor outside known displays", "x", p.X, "y", p.Y)
	}
	t.state = next
	listeners := t.liveListenersLocked()
	t.mu.Unlock()

	moved := next.Position != prev.Position
	changed := next.DisplayID != prev.DisplayID
	if !moved && !changed {
		return
	}
	for _, l := range listeners {
		if changed {
			l.CursorMovedToDisplay(next.DisplayID)
		}
		if moved {
			l.CursorMovedToLocation(next.Position)
		}
	}
}

// liveListenersLocked resolves the weak references, dropping listeners that
// have been garbage collected.
func (t *CursorTracker) liveListenersLocked() []CursorListener {
	live := make([]CursorListener, 0, len(t.listeners))
	kept := t.listeners[:0]
	for _, e := range t.listeners {
		if l := e.resolve(); l != nil {
			live = append(live, l)
			kept = append(kept, e)
		}
	}
	clear(t.listeners[len(kept):])
	t.listeners = kept
	return live
}

// Subscription identifies a registered listener.
type Subscription struct {
	tracker *CursorTracker
	id      uint64
}

// Cancel removes the listener. Cancelling twice is harmless.
func (s Subscription) Cancel() {
	if s.tracker == nil {
		return
	}
	s.tracker.remove(func(e listenerEntry) bool { return e.id == s.id })
}

// Subscribe registers listener without keeping it alive: once nothing else
// references it, it is dropped on the next notification. Subscribing the
// same listener twice returns the existing subscription.
func Subscribe[T any, P interface {
	*T
	CursorListener
}](t *CursorTracker, listener P) Subscription {
	wp := weak.Make((*T)(listener))

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.listeners {
		if e.key == any(wp) {
			return Subscription{tracker: t, id: e.id}
		}
	}
	t.nextID++
	t.listeners = append(t.listeners, listenerEntry{
		id:  t.nextID,
		key: wp,
		resolve: func() CursorListener {
			if p := wp.Value(); p != nil {
				return P(p)
			}
			return nil
		},
	})
	return Subscription{tracker: t, id: t.nextID}
}

// Unsubscribe removes listener if it is registered.
func Unsubscribe[T any, P interface {
	*T
	CursorListener
}](t *CursorTracker, listener P) {
	wp := weak.Make((*T)(listener))
	t.remove(func(e listenerEntry) bool { return e.key == any(wp) })
}

func (t *CursorTracker) remove(match func(listenerEntry) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = slices.DeleteFunc(t.listeners, match)
}
