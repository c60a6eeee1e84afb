// Package wm models the window-manager side of the shell.
//
// The compositor reports window lifecycle events to the service; Tracker
// mirrors its state (window set, stacking order, active window) so the home
// registry can query it synchronously. Windows are identified by XID.
package wm

// WindowType classifies a top-level window.
type WindowType string

const (
	WindowNormal WindowType = "normal"
	WindowDialog WindowType = "dialog"
	WindowSplash WindowType = "splash"
	WindowOther  WindowType = "other"
)

// Window is one top-level window as reported by the compositor.
type Window struct {
	XID          uint32     `json:"xid"`
	Type         WindowType `json:"type"`
	Title        string     `json:"title,omitempty"`
	TransientFor uint32     `json:"transient_for,omitempty"` // parent XID, 0 if none

	// Window properties stamped by the activity factory. Either may be
	// absent; an unresolvable window still maps to a bare activity record.
	ActivityID string `json:"activity_id,omitempty"`
	BundleID   string `json:"bundle_id,omitempty"`
}

// IsTransient reports whether the window declares a transient parent.
func (w *Window) IsTransient() bool {
	return w.TransientFor != 0
}

// Screen is the read surface the home registry consults: the globally
// active window, the full stacking order, and per-XID lookup.
type Screen interface {
	// ActiveWindow returns the currently active window, or nil.
	ActiveWindow() *Window

	// Stacked returns all windows in bottom-to-top stacking order.
	Stacked() []*Window

	// Lookup resolves an XID to a tracked window.
	Lookup(xid uint32) (*Window, bool)
}
