package wm

import (
	"testing"

	"github.com/solardesk/shell/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	return NewTracker(logging.NewNop())
}

func TestTrackerOpenClose(t *testing.T) {
	tr := newTestTracker()

	tr.ApplyOpened(&Window{XID: 1, Type: WindowNormal})
	tr.ApplyOpened(&Window{XID: 2, Type: WindowNormal})

	assert.Equal(t, 2, tr.Len())

	w, ok := tr.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), w.XID)

	closed, ok := tr.ApplyClosed(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), closed.XID)
	assert.Equal(t, 1, tr.Len())

	_, ok = tr.ApplyClosed(1)
	assert.False(t, ok)
}

func TestTrackerStackingOrder(t *testing.T) {
	tr := newTestTracker()

	tr.ApplyOpened(&Window{XID: 1, Type: WindowNormal})
	tr.ApplyOpened(&Window{XID: 2, Type: WindowNormal})
	tr.ApplyOpened(&Window{XID: 3, Type: WindowNormal})

	// Raising moves a window to the top of the stack.
	tr.ApplyRaised(1)

	stacked := tr.Stacked()
	require.Len(t, stacked, 3)
	assert.Equal(t, uint32(2), stacked[0].XID)
	assert.Equal(t, uint32(3), stacked[1].XID)
	assert.Equal(t, uint32(1), stacked[2].XID)
}

func TestTrackerActiveRaises(t *testing.T) {
	tr := newTestTracker()

	tr.ApplyOpened(&Window{XID: 1, Type: WindowNormal})
	tr.ApplyOpened(&Window{XID: 2, Type: WindowNormal})

	tr.ApplyActive(1)

	require.NotNil(t, tr.ActiveWindow())
	assert.Equal(t, uint32(1), tr.ActiveWindow().XID)

	stacked := tr.Stacked()
	assert.Equal(t, uint32(1), stacked[len(stacked)-1].XID)

	// Closing the active window clears it.
	tr.ApplyClosed(1)
	assert.Nil(t, tr.ActiveWindow())
}

func TestTrackerReopenLeavesPriorWindowUntouched(t *testing.T) {
	tr := newTestTracker()

	first := &Window{XID: 5, Type: WindowNormal, Title: "editor"}
	tr.ApplyOpened(first)
	tr.ApplyActive(5)

	reopened := &Window{XID: 5, Type: WindowNormal, Title: "terminal"}
	tr.ApplyOpened(reopened)

	// A record elsewhere may still hold the first pointer; the swap must
	// not write through it.
	assert.Equal(t, "editor", first.Title)

	w, ok := tr.Lookup(5)
	require.True(t, ok)
	assert.Same(t, reopened, w)
	assert.Equal(t, "terminal", w.Title)

	stacked := tr.Stacked()
	require.Len(t, stacked, 1)
	assert.Same(t, reopened, stacked[0])
	assert.Same(t, reopened, tr.ActiveWindow())
	assert.Equal(t, 1, tr.Len())
}

func TestTrackerActiveUnknownWindow(t *testing.T) {
	tr := newTestTracker()

	tr.ApplyActive(99)
	assert.Nil(t, tr.ActiveWindow())

	tr.ApplyActive(0)
	assert.Nil(t, tr.ActiveWindow())
}
