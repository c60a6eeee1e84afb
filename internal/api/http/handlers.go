// Package http provides the HTTP surface of the shell service.
//
// The compositor and the launcher feed events in over POST endpoints; the
// read endpoints expose the home registry's state. All handlers use Gin.
//
// Endpoints:
//   - Events: /events/window-opened, /events/window-closed,
//     /events/window-raised, /events/active-window-changed
//   - Launcher: /launch, /launch-failed
//   - State: /activities, /activities/active, /activities/pending,
//     /activities/next, /activities/previous
//   - Bundles: /bundles
//   - Health: /health
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solardesk/shell/internal/domain/bundle"
	"github.com/solardesk/shell/internal/domain/home"
	"github.com/solardesk/shell/internal/wm"
)

// Handlers bundles the dependencies shared by all HTTP handlers.
type Handlers struct {
	registry *home.Registry
	tracker  *wm.Tracker
	bundles  *bundle.Registry
}

// NewHandlers creates the handler set.
func NewHandlers(registry *home.Registry, tracker *wm.Tracker, bundles *bundle.Registry) *Handlers {
	return &Handlers{
		registry: registry,
		tracker:  tracker,
		bundles:  bundles,
	}
}

// Health reports service liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"activities": h.registry.Len(),
		"windows":    h.tracker.Len(),
	})
}

// WindowOpened ingests a compositor window-opened event.
func (h *Handlers) WindowOpened(c *gin.Context) {
	var w wm.Window
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if w.XID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "xid is required"})
		return
	}
	if w.Type == "" {
		w.Type = wm.WindowOther
	}

	h.tracker.ApplyOpened(&w)
	h.registry.HandleWindowOpened(&w)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type windowRef struct {
	XID uint32 `json:"xid"`
}

// WindowClosed ingests a compositor window-closed event.
func (h *Handlers) WindowClosed(c *gin.Context) {
	var ref windowRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, ok := h.tracker.ApplyClosed(ref.XID)
	if !ok {
		// Feed a bare normal window through anyway; the registry logs
		// the unknown-window condition and stays consistent.
		w = &wm.Window{XID: ref.XID, Type: wm.WindowNormal}
	}
	h.registry.HandleWindowClosed(w)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// WindowRaised ingests a compositor restack event.
func (h *Handlers) WindowRaised(c *gin.Context) {
	var ref windowRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracker.ApplyRaised(ref.XID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ActiveWindowChanged ingests a compositor focus-change event. An XID of 0
// means no window is active.
func (h *Handlers) ActiveWindowChanged(c *gin.Context) {
	var ref windowRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.tracker.ApplyActive(ref.XID)
	h.registry.HandleActiveWindowChanged()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type launchRequest struct {
	ActivityID  string `json:"activity_id" binding:"required"`
	ServiceName string `json:"service_name" binding:"required"`
}

// Launch ingests a launcher launch-started notification.
func (h *Handlers) Launch(c *gin.Context) {
	var req launchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.NotifyLaunch(req.ActivityID, req.ServiceName); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, home.ErrUnknownBundle) || errors.Is(err, home.ErrDuplicateActivity) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type launchFailedRequest struct {
	ActivityID string `json:"activity_id" binding:"required"`
}

// LaunchFailed ingests a launcher launch-failed notification.
func (h *Handlers) LaunchFailed(c *gin.Context) {
	var req launchFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.registry.NotifyLaunchFailed(req.ActivityID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListActivities returns all tracked activities in registry order.
func (h *Handlers) ListActivities(c *gin.Context) {
	acts := h.registry.Activities()
	snapshots := make([]home.Snapshot, len(acts))
	for i, a := range acts {
		snapshots[i] = a.Snapshot()
	}
	c.JSON(http.StatusOK, gin.H{"activities": snapshots})
}

// ActiveActivity returns the focused activity, or null.
func (h *Handlers) ActiveActivity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activity": snapshotOrNil(h.registry.ActiveActivity())})
}

// PendingActivity returns the pending activity, or null.
func (h *Handlers) PendingActivity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activity": snapshotOrNil(h.registry.PendingActivity())})
}

// NextActivity returns the cyclic successor of the pending activity.
func (h *Handlers) NextActivity(c *gin.Context) {
	h.neighbor(c, h.registry.NextActivity)
}

// PreviousActivity returns the cyclic predecessor of the pending activity.
func (h *Handlers) PreviousActivity(c *gin.Context) {
	h.neighbor(c, h.registry.PreviousActivity)
}

func (h *Handlers) neighbor(c *gin.Context, pick func() (*home.Activity, bool)) {
	a, ok := pick()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no windowed activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": a.Snapshot()})
}

// ListBundles returns all installed bundle manifests.
func (h *Handlers) ListBundles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bundles": h.bundles.List()})
}

func snapshotOrNil(a *home.Activity) interface{} {
	if a == nil {
		return nil
	}
	return a.Snapshot()
}
