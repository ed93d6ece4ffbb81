package main

import (
	"errors"
	"image"
	"runtime"
	"testing"
)

type fakePointer struct {
	pos   image.Point
	warps []image.Point
}

func (p *fakePointer) Position() image.Point { return p.pos }

func (p *fakePointer) Warp(pt image.Point) {
	p.warps = append(p.warps, pt)
	p.pos = pt
}

type fakeDisplays struct {
	displays []Display
	err      error
	calls    int
}

func (f *fakeDisplays) Displays() ([]Display, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.displays, nil
}

type recordingListener struct {
	moves    []image.Point
	displays []DisplayID
}

func (r *recordingListener) CursorMovedToLocation(p image.Point) { r.moves = append(r.moves, p) }

func (r *recordingListener) CursorMovedToDisplay(id DisplayID) {
	r.displays = append(r.displays, id)
}

func (t *CursorTracker) listenerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

func newTestTracker(pos image.Point, displays []Display) (*CursorTracker, *fakePointer, *fakeDisplays) {
	ptr := &fakePointer{pos: pos}
	fd := &fakeDisplays{displays: displays}
	return NewCursorTracker(ptr, fd), ptr, fd
}

func TestCursorTracker_InitialState(t *testing.T) {
	tr, _, _ := newTestTracker(image.Pt(2000, 100), twoDisplays)

	s := tr.State()
	if s.Position != image.Pt(2000, 100) || s.DisplayID != 1 || s.ScaleFactor != 1 {
		t.Errorf("unexpected initial state %+v", s)
	}
	if id, scale := tr.ActiveDisplay(); id != 1 || scale != 1 {
		t.Errorf("unexpected active display %v %v", id, scale)
	}
}

func TestCursorTracker_CrossingDisplaysNotifiesOnce(t *testing.T) {
	tr, ptr, _ := newTestTracker(image.Pt(1000, 500), twoDisplays)
	l := &recordingListener{}
	Subscribe(tr, l)

	ptr.pos = image.Pt(2000, 500)
	tr.Update()
	tr.Update() // no change, no notification

	if len(l.displays) != 1 || l.displays[0] != 1 {
		t.Errorf("expected one display change to 1, got %v", l.displays)
	}
	if len(l.moves) != 1 || l.moves[0] != image.Pt(2000, 500) {
		t.Errorf("expected one move, got %v", l.moves)
	}
	if _, scale := tr.ActiveDisplay(); scale != 1 {
		t.Errorf("expected scale 1 after crossing, got %v", scale)
	}
}

func TestCursorTracker_MoveWithinDisplay(t *testing.T) {
	tr, ptr, _ := newTestTracker(image.Pt(10, 10), twoDisplays)
	l := &recordingListener{}
	Subscribe(tr, l)

	ptr.pos = image.Pt(20, 10)
	tr.Update()

	if len(l.moves) != 1 {
		t.Errorf("expected one move, got %v", l.moves)
	}
	if len(l.displays) != 0 {
		t.Errorf("expected no display change, got %v", l.displays)
	}
}

func TestCursorTracker_OffScreenKeepsLastDisplay(t *testing.T) {
	tr, ptr, fd := newTestTracker(image.Pt(100, 100), twoDisplays)
	callsBefore := fd.calls

	ptr.pos = image.Pt(-500, -500)
	tr.Update()

	s := tr.State()
	if s.Position != image.Pt(-500, -500) {
		t.Errorf("expected position to follow pointer, got %v", s.Position)
	}
	if s.DisplayID != 0 || s.ScaleFactor != 2 {
		t.Errorf("expected last display to be kept, got %+v", s)
	}
	if fd.calls != callsBefore+1 {
		t.Errorf("expected one re-enumeration, got %d", fd.calls-callsBefore)
	}
}

func TestCursorTracker_RefreshKeepsDisplaysOnError(t *testing.T) {
	tr, _, fd := newTestTracker(image.Pt(100, 100), twoDisplays)

	fd.err = errors.New("display server went away")
	if err := tr.Refresh(); err == nil {
		t.Fatal("expected Refresh error")
	}
	if got := len(tr.Displays()); got != 2 {
		t.Errorf("expected previous displays kept, got %d", got)
	}
}

func TestCursorTracker_MovePositionBy(t *testing.T) {
	tr, ptr, _ := newTestTracker(image.Pt(1439, 10), twoDisplays)
	l := &recordingListener{}
	Subscribe(tr, l)

	tr.MovePositionBy(1, 0)

	if len(ptr.warps) != 1 || ptr.warps[0] != image.Pt(1440, 10) {
		t.Errorf("expected pointer warp to (1440,10), got %v", ptr.warps)
	}
	if len(l.moves) != 1 || l.moves[0] != image.Pt(1440, 10) {
		t.Errorf("expected move notification, got %v", l.moves)
	}
	if len(l.displays) != 1 || l.displays[0] != 1 {
		t.Errorf("expected display change to 1, got %v", l.displays)
	}
}

func TestSubscribe_Twice(t *testing.T) {
	tr, ptr, _ := newTestTracker(image.Pt(10, 10), twoDisplays)
	l := &recordingListener{}
	s1 := Subscribe(tr, l)
	s2 := Subscribe(tr, l)
	if s1 != s2 {
		t.Errorf("expected same subscription, got %v and %v", s1, s2)
	}

	ptr.pos = image.Pt(11, 10)
	tr.Update()
	if len(l.moves) != 1 {
		t.Errorf("expected a single notification, got %d", len(l.moves))
	}
}

func TestUnsubscribe(t *testing.T) {
	tr, ptr, _ := newTestTracker(image.Pt(10, 10), twoDisplays)
	kept := &recordingListener{}
	gone := &recordingListener{}
	Subscribe(tr, kept)
	Subscribe(tr, gone)

	Unsubscribe(tr, gone)
	ptr.pos = image.Pt(11, 10)
	tr.Update()

	if len(gone.moves) != 0 {
		t.Errorf("expected no notifications after Unsubscribe, got %v", gone.moves)
	}
	if len(kept.moves) != 1 {
		t.Errorf("expected other listener to keep receiving, got %v", kept.moves)
	}
}

func TestSubscription_Cancel(t *testing.T) {
	tr, ptr, _ := newTestTracker(image.Pt(10, 10), twoDisplays)
	l := &recordingListener{}
	sub := Subscribe(tr, l)

	sub.Cancel()
	sub.Cancel()
	ptr.pos = image.Pt(11, 10)
	tr.Update()

	if len(l.moves) != 0 {
		t.Errorf("expected no notifications after Cancel, got %v", l.moves)
	}
	if n := tr.listenerCount(); n != 0 {
		t.Errorf("expected no listeners, got %d", n)
	}
}

func TestSubscribe_DoesNotKeepListenerAlive(t *testing.T) {
	tr, ptr, _ := newTestTracker(image.Pt(10, 10), twoDisplays)
	kept := &recordingListener{}
	Subscribe(tr, kept)
	func() {
		Subscribe(tr, &recordingListener{})
	}()
	if n := tr.listenerCount(); n != 2 {
		t.Fatalf("expected 2 listeners, got %d", n)
	}

	runtime.GC()
	runtime.GC()
	ptr.pos = image.Pt(12, 10)
	tr.Update()

	if n := tr.listenerCount(); n != 1 {
		t.Errorf("expected collected listener to be pruned, got %d listeners", n)
	}
	if len(kept.moves) != 1 {
		t.Errorf("expected live listener to be notified, got %v", kept.moves)
	}
	runtime.KeepAlive(kept)
}
