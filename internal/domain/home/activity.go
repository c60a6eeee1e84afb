package home

import (
	"sync"
	"time"

	"github.com/solardesk/shell/internal/control"
	"github.com/solardesk/shell/internal/domain/bundle"
	"github.com/solardesk/shell/internal/shared/id"
	"github.com/solardesk/shell/internal/wm"
)

// Activity is one running or launching activity instance.
//
// A record is created either when a new top-level window appears with no
// matching record, or when the launcher announces a launch before any window
// exists. After construction one of two things is true: the record has a
// window, or it is still launching.
//
// instanceID, info, service, and createdAt are fixed at construction. The
// mutable fields are guarded by mu so records can be read through registry
// snapshots while the handler lock is held elsewhere.
type Activity struct {
	instanceID id.InstanceID
	info       *bundle.Info    // static metadata, may be nil
	service    control.Service // nil when the activity has no control surface
	createdAt  time.Time

	mu         sync.Mutex
	activityID string     // external ID, may be empty before window mapping
	window     *wm.Window // nil while launching
	launching  bool
}

func newActivity(info *bundle.Info, activityID string, svc control.Service) *Activity {
	return &Activity{
		instanceID: id.NewInstanceID(),
		activityID: activityID,
		info:       info,
		service:    svc,
		createdAt:  time.Now(),
	}
}

// InstanceID returns the registry-internal stable identifier.
func (a *Activity) InstanceID() id.InstanceID { return a.instanceID }

// ActivityID returns the external activity identifier, or "".
func (a *Activity) ActivityID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activityID
}

// Info returns the bundle metadata, or nil.
func (a *Activity) Info() *bundle.Info { return a.info }

// Window returns the mapped window, or nil while launching.
func (a *Activity) Window() *wm.Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.window
}

// XID returns the mapped window's XID, or 0 if no window is mapped.
func (a *Activity) XID() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.window == nil {
		return 0
	}
	return a.window.XID
}

// Launching reports whether the activity is still waiting for its window.
func (a *Activity) Launching() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.launching
}

// Service returns the remote control capability, or nil.
func (a *Activity) Service() control.Service { return a.service }

// CreatedAt returns the record creation time.
func (a *Activity) CreatedAt() time.Time { return a.createdAt }

// ServiceName returns the bundle service name, or "".
func (a *Activity) ServiceName() string {
	if a.info == nil {
		return ""
	}
	return a.info.ServiceName
}

func (a *Activity) setWindow(w *wm.Window) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.window = w
	if a.activityID == "" {
		a.activityID = w.ActivityID
	}
}

func (a *Activity) setLaunching(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.launching = v
}

// Snapshot is the JSON view of a record served by the API and the
// signal stream.
type Snapshot struct {
	InstanceID  string       `json:"instance_id"`
	ActivityID  string       `json:"activity_id,omitempty"`
	ServiceName string       `json:"service_name,omitempty"`
	Bundle      *bundle.Info `json:"bundle,omitempty"`
	XID         uint32       `json:"xid,omitempty"`
	Launching   bool         `json:"launching"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Snapshot renders the record for external consumers.
func (a *Activity) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	var xid uint32
	if a.window != nil {
		xid = a.window.XID
	}
	return Snapshot{
		InstanceID:  a.instanceID.String(),
		ActivityID:  a.activityID,
		ServiceName: a.ServiceName(),
		Bundle:      a.info,
		XID:         xid,
		Launching:   a.launching,
		CreatedAt:   a.createdAt,
	}
}
