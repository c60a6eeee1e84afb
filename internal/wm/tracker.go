package wm

import (
	"sync"

	"github.com/solardesk/shell/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Tracker mirrors compositor state from the event feed. It implements
// Screen for the home registry. Raising and activation both move a window
// to the top of the stacking list, so the list tail is the most recently
// raised window.
type Tracker struct {
	mu      sync.RWMutex
	byXID   map[uint32]*Window
	stacked []*Window // bottom-to-top
	active  *Window
	log     *logging.Logger
}

// NewTracker creates an empty tracker.
func NewTracker(log *logging.Logger) *Tracker {
	return &Tracker{
		byXID: make(map[uint32]*Window),
		log:   log.Named("wm"),
	}
}

// ApplyOpened records a newly mapped window at the top of the stack.
// Reopening a known XID swaps in the new window; the previously stored
// Window is never written through, since callers may still hold it.
func (t *Tracker) ApplyOpened(w *Window) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.byXID[w.XID]; ok {
		t.log.Warn("window reopened, replacing", zap.Uint32("xid", w.XID))
		t.byXID[w.XID] = w
		for i, s := range t.stacked {
			if s == prev {
				t.stacked[i] = w
				break
			}
		}
		if t.active == prev {
			t.active = w
		}
		return
	}

	t.byXID[w.XID] = w
	t.stacked = append(t.stacked, w)
}

// ApplyClosed drops a window from the mirror and returns it.
func (t *Tracker) ApplyClosed(xid uint32) (*Window, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.byXID[xid]
	if !ok {
		return nil, false
	}

	delete(t.byXID, xid)
	for i, s := range t.stacked {
		if s.XID == xid {
			t.stacked = append(t.stacked[:i], t.stacked[i+1:]...)
			break
		}
	}
	if t.active == w {
		t.active = nil
	}
	return w, true
}

// ApplyActive marks a window as globally active and raises it. An XID of 0
// clears the active window.
func (t *Tracker) ApplyActive(xid uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if xid == 0 {
		t.active = nil
		return
	}

	w, ok := t.byXID[xid]
	if !ok {
		t.log.Warn("activation for unknown window", zap.Uint32("xid", xid))
		return
	}

	t.active = w
	t.raise(w)
}

// ApplyRaised moves a window to the top of the stacking order.
func (t *Tracker) ApplyRaised(xid uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.byXID[xid]; ok {
		t.raise(w)
	}
}

// raise moves w to the stacking tail. Caller holds mu.
func (t *Tracker) raise(w *Window) {
	for i, s := range t.stacked {
		if s == w {
			t.stacked = append(t.stacked[:i], t.stacked[i+1:]...)
			t.stacked = append(t.stacked, w)
			return
		}
	}
}

// ActiveWindow implements Screen.
func (t *Tracker) ActiveWindow() *Window {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Stacked implements Screen. The returned slice is a copy.
func (t *Tracker) Stacked() []*Window {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Window, len(t.stacked))
	copy(out, t.stacked)
	return out
}

// Lookup implements Screen.
func (t *Tracker) Lookup(xid uint32) (*Window, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	w, ok := t.byXID[xid]
	return w, ok
}

// Len returns the number of tracked windows.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byXID)
}
