// Package home is the activity-tracking core of the shell.
//
// The Registry is the point of registration for all running activities. It
// maps window-manager events onto activity records, tracks which activity is
// pending (the one shown on the next zoom-level switch) and which is active
// (currently focused), and broadcasts typed signals on every change.
package home

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/solardesk/shell/internal/control"
	"github.com/solardesk/shell/internal/domain/bundle"
	"github.com/solardesk/shell/internal/infrastructure/logging"
	"github.com/solardesk/shell/internal/infrastructure/monitoring"
	"github.com/solardesk/shell/internal/shared/id"
	"github.com/solardesk/shell/internal/wm"
	"go.uber.org/zap"
)

// ErrUnknownBundle is returned by NotifyLaunch when the service name is not
// in the bundle registry. This is a caller contract violation.
var ErrUnknownBundle = errors.New("bundle service name not found in registry")

// ErrDuplicateActivity is returned by NotifyLaunch when a record with the
// same activity ID is already tracked.
var ErrDuplicateActivity = errors.New("activity id already tracked")

// BundleResolver resolves bundle service names to static metadata.
type BundleResolver interface {
	GetActivity(serviceName string) (*bundle.Info, bool)
}

// Registry owns the ordered collection of activity records.
//
// All mutations run to completion under one lock, the Go rendering of the
// original single-threaded event delivery. The only asynchronous work is the
// fire-and-forget remote SetActive call, which never blocks a handler.
// Active and pending are held as instance IDs resolved on read, so a removed
// record can never be referenced through a stale selector.
//
// Read accessors never take the handler lock: they resolve against a
// published copy-on-write snapshot, so signal subscribers can query the
// registry from inside a callback. The snapshot is republished just before
// every signal, which keeps the removal ordering observable: during
// activity-removed the record is still a member.
type Registry struct {
	mu         sync.Mutex
	activities []*Activity // insertion order = window-open/launch order
	activeID   id.InstanceID
	pendingID  id.InstanceID
	snap       atomic.Pointer[registryState]

	screen   wm.Screen
	bundles  BundleResolver
	controls control.Factory // may be nil
	signals  *dispatcher
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// registryState is the immutable view served to read accessors.
type registryState struct {
	activities []*Activity
	activeID   id.InstanceID
	pendingID  id.InstanceID
}

func (s *registryState) resolve(instanceID id.InstanceID) *Activity {
	if instanceID == "" {
		return nil
	}
	for _, act := range s.activities {
		if act.instanceID == instanceID {
			return act
		}
	}
	return nil
}

// NewRegistry creates an empty registry.
func NewRegistry(screen wm.Screen, bundles BundleResolver, controls control.Factory, log *logging.Logger) *Registry {
	r := &Registry{
		screen:   screen,
		bundles:  bundles,
		controls: controls,
		signals:  newDispatcher(),
		log:      log.Named("home"),
	}
	r.snap.Store(&registryState{})
	return r
}

// publish stores a fresh read snapshot. Caller holds mu.
func (r *Registry) publish() {
	acts := make([]*Activity, len(r.activities))
	copy(acts, r.activities)
	r.snap.Store(&registryState{
		activities: acts,
		activeID:   r.activeID,
		pendingID:  r.pendingID,
	})
}

// WithMetrics adds metrics tracking to the registry.
func (r *Registry) WithMetrics(m *monitoring.Metrics) *Registry {
	r.metrics = m
	return r
}

// Subscribe registers a handler for one signal kind. Handlers run
// synchronously in registration order inside the emitting event turn.
func (r *Registry) Subscribe(sig Signal, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals.subscribe(sig, h)
}

// SubscribeAll registers a handler for every signal kind.
func (r *Registry) SubscribeAll(h CatchAllHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals.subscribeAll(h)
}

// HandleWindowOpened maps a newly opened window onto an activity record.
// Windows of non-normal type are ignored. If a launching record with the
// same activity ID exists it is reused, otherwise a new record is created.
func (r *Registry) HandleWindowOpened(w *wm.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.countWindowEvent("opened")
	if w.Type != wm.WindowNormal {
		return
	}

	var info *bundle.Info
	if w.BundleID != "" {
		// Unresolvable metadata is not an error; the record simply has
		// no bundle info.
		info, _ = r.bundles.GetActivity(w.BundleID)
	}

	var activity *Activity
	if w.ActivityID != "" {
		activity = r.lookupByActivityID(w.ActivityID)
	}

	if activity == nil {
		activity = r.newRecord(info, w.ActivityID)
		r.addActivity(activity)
	}

	activity.setWindow(w)
	activity.setLaunching(false)
	r.emit(SignalActivityStarted, activity)

	if r.pendingID == "" {
		r.setPending(activity)
	}
	r.updateGauges()
}

// HandleWindowClosed removes the record owning the closed window. Windows of
// non-normal type are ignored; a close for an untracked window is logged and
// absorbed.
func (r *Registry) HandleWindowClosed(w *wm.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.countWindowEvent("closed")
	if w.Type != wm.WindowNormal {
		return
	}

	activity := r.lookupByXID(w.XID)
	if activity == nil {
		r.log.Error("model for window does not exist", zap.Uint32("xid", w.XID))
		return
	}
	r.removeActivity(activity)
	r.updateGauges()
}

// HandleActiveWindowChanged reads the screen's current active window and, if
// it resolves to a tracked record, selects that record as both pending and
// active. Dialogs resolve to their owning activity through the transient
// parent chain.
func (r *Registry) HandleActiveWindowChanged() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.countWindowEvent("active-changed")

	w := r.screen.ActiveWindow()
	if w == nil {
		return
	}

	if w.Type != wm.WindowDialog {
		// Compositors can report transient hints that form a cycle; a
		// visited set keeps the walk finite.
		seen := map[uint32]bool{w.XID: true}
		for w.IsTransient() {
			parent, ok := r.screen.Lookup(w.TransientFor)
			if !ok {
				break
			}
			if seen[parent.XID] {
				r.log.Warn("transient parent chain is cyclic",
					zap.Uint32("xid", w.XID),
					zap.Uint32("transient_for", w.TransientFor))
				break
			}
			seen[parent.XID] = true
			w = parent
		}
	}

	activity := r.lookupByXID(w.XID)
	if activity == nil {
		return
	}
	r.setPending(activity)
	r.setActive(activity)
}

// NotifyLaunch records that a launch has begun before any window exists.
// The service name must resolve in the bundle registry; an unknown name is a
// caller contract violation and is returned as an error.
func (r *Registry) NotifyLaunch(activityID, serviceName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.bundles.GetActivity(serviceName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBundle, serviceName)
	}
	if activityID != "" && r.lookupByActivityID(activityID) != nil {
		return fmt.Errorf("%w: %q", ErrDuplicateActivity, activityID)
	}

	activity := r.newRecord(info, activityID)
	activity.setLaunching(true)
	r.addActivity(activity)

	if r.metrics != nil {
		r.metrics.LaunchesStarted.Inc()
	}
	r.updateGauges()
	return nil
}

// NotifyLaunchFailed drops the launching record for a failed launch. An
// unknown activity ID is logged and absorbed.
func (r *Registry) NotifyLaunchFailed(activityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	activity := r.lookupByActivityID(activityID)
	if activity == nil {
		r.log.Error("model for activity id does not exist", zap.String("activity_id", activityID))
		return
	}

	r.log.Debug("activity launch failed",
		zap.String("activity_id", activityID),
		zap.String("service_name", activity.ServiceName()))
	if r.metrics != nil {
		r.metrics.LaunchesFailed.Inc()
	}
	r.removeActivity(activity)
	r.updateGauges()
}

// ActiveActivity returns the currently focused activity, or nil. Like every
// read accessor it resolves against the published snapshot, so it is safe to
// call from inside a signal handler.
func (r *Registry) ActiveActivity() *Activity {
	s := r.snap.Load()
	return s.resolve(s.activeID)
}

// PendingActivity returns the activity shown on the next zoom-level switch.
// It is nil only while no activity is tracked.
func (r *Registry) PendingActivity() *Activity {
	s := r.snap.Load()
	return s.resolve(s.pendingID)
}

// NextActivity returns the cyclic successor of the pending activity within
// the windowed subsequence. ok is false when no windowed activity exists or
// the pending activity is not itself windowed.
func (r *Registry) NextActivity() (*Activity, bool) {
	return r.snap.Load().neighbor(+1)
}

// PreviousActivity returns the cyclic predecessor of the pending activity
// within the windowed subsequence.
func (r *Registry) PreviousActivity() (*Activity, bool) {
	return r.snap.Load().neighbor(-1)
}

// Len returns the number of tracked activities.
func (r *Registry) Len() int {
	return len(r.snap.Load().activities)
}

// At returns the activity at position i in registry order.
func (r *Registry) At(i int) (*Activity, bool) {
	s := r.snap.Load()
	if i < 0 || i >= len(s.activities) {
		return nil, false
	}
	return s.activities[i], true
}

// Index returns the position of an activity in registry order.
func (r *Registry) Index(a *Activity) (int, bool) {
	for i, act := range r.snap.Load().activities {
		if act == a {
			return i, true
		}
	}
	return 0, false
}

// Activities returns a copy of the tracked records in registry order.
func (r *Registry) Activities() []*Activity {
	s := r.snap.Load()
	out := make([]*Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

// newRecord builds a record, attaching the remote control capability when
// the bundle declares an endpoint.
func (r *Registry) newRecord(info *bundle.Info, activityID string) *Activity {
	var svc control.Service
	if r.controls != nil && info != nil && info.ControlEndpoint != "" {
		svc = r.controls.ForEndpoint(info.ControlEndpoint)
	}
	return newActivity(info, activityID, svc)
}

// addActivity appends a record and announces it. Caller holds mu.
func (r *Registry) addActivity(a *Activity) {
	r.activities = append(r.activities, a)
	if r.metrics != nil {
		r.metrics.ActivitiesAdded.Inc()
	}
	r.emit(SignalActivityAdded, a)
}

// removeActivity drops a record. Caller holds mu.
//
// Order matters: active is cleared first, then pending is recomputed from
// the stacking order, then activity-removed fires, and only then does the
// record leave the sequence, so subscribers still observe it as a member
// during the callback.
func (r *Registry) removeActivity(a *Activity) {
	if r.activeID == a.instanceID {
		r.setActive(nil)
	}

	if r.pendingID == a.instanceID {
		// Most-recently-raised first. The record being removed is
		// excluded explicitly rather than relying on the compositor
		// having already dropped its window.
		var replacement *Activity
		stacked := r.screen.Stacked()
		for i := len(stacked) - 1; i >= 0; i-- {
			if cand := r.lookupByXID(stacked[i].XID); cand != nil && cand != a {
				replacement = cand
				break
			}
		}
		if replacement != nil {
			r.setPending(replacement)
		} else {
			r.log.Error("no activities are running")
			r.setPending(nil)
		}
	}

	r.emit(SignalActivityRemoved, a)

	for i, act := range r.activities {
		if act == a {
			r.activities = append(r.activities[:i], r.activities[i+1:]...)
			break
		}
	}
	r.publish()
	if r.metrics != nil {
		r.metrics.ActivitiesRemoved.Inc()
	}
}

// setPending is an idempotent selector update. Caller holds mu.
func (r *Registry) setPending(a *Activity) {
	if r.lookupInstance(r.pendingID) == a {
		return
	}

	if a == nil {
		r.pendingID = ""
	} else {
		r.pendingID = a.instanceID
	}
	r.emit(SignalPendingChanged, a)
}

// setActive is an idempotent selector update. The outgoing and incoming
// activities each get a best-effort remote SetActive call if they expose a
// control service. Caller holds mu.
func (r *Registry) setActive(a *Activity) {
	current := r.lookupInstance(r.activeID)
	if current == a {
		return
	}

	if current != nil && current.service != nil {
		r.fireSetActive(current, false)
	}
	if a != nil && a.service != nil {
		r.fireSetActive(a, true)
	}

	if a == nil {
		r.activeID = ""
	} else {
		r.activeID = a.instanceID
	}
	r.emit(SignalActiveChanged, a)
}

// fireSetActive issues the remote call without awaiting it. Completion is
// logged only; there are no retries.
func (r *Registry) fireSetActive(a *Activity, active bool) {
	svc := a.service
	serviceName := a.ServiceName()
	if r.metrics != nil {
		r.metrics.ControlCalls.WithLabelValues(fmt.Sprintf("%t", active)).Inc()
	}
	go func() {
		if err := svc.SetActive(context.Background(), active); err != nil {
			r.log.Error("set_active failed",
				zap.String("service_name", serviceName),
				zap.Bool("active", active),
				zap.Error(err))
			if r.metrics != nil {
				r.metrics.ControlErrors.Inc()
			}
		}
	}()
}

// neighbor resolves the cyclic previous/next activity over the windowed
// subsequence.
func (s *registryState) neighbor(step int) (*Activity, bool) {
	windowed := s.windowed()
	if len(windowed) == 0 {
		return nil, false
	}

	pending := s.resolve(s.pendingID)
	at := -1
	for i, act := range windowed {
		if act == pending {
			at = i
			break
		}
	}
	if at < 0 {
		// Pending is absent or not windowed; there is no position to
		// step from.
		return nil, false
	}

	next := (at + step + len(windowed)) % len(windowed)
	return windowed[next], true
}

// windowed returns the ordered subsequence of records that have a mapped
// window.
func (s *registryState) windowed() []*Activity {
	var out []*Activity
	for _, act := range s.activities {
		if act.Window() != nil {
			out = append(out, act)
		}
	}
	return out
}

// lookupInstance resolves a selector ID, or nil for "" and removed records.
// Caller holds mu.
func (r *Registry) lookupInstance(instanceID id.InstanceID) *Activity {
	if instanceID == "" {
		return nil
	}
	for _, act := range r.activities {
		if act.instanceID == instanceID {
			return act
		}
	}
	return nil
}

// lookupByXID finds the record owning a window. Caller holds mu.
func (r *Registry) lookupByXID(xid uint32) *Activity {
	for _, act := range r.activities {
		if w := act.Window(); w != nil && w.XID == xid {
			return act
		}
	}
	return nil
}

// lookupByActivityID finds a record by external activity ID. Caller holds mu.
func (r *Registry) lookupByActivityID(activityID string) *Activity {
	if activityID == "" {
		return nil
	}
	for _, act := range r.activities {
		if act.ActivityID() == activityID {
			return act
		}
	}
	return nil
}

// emit republishes the read snapshot before dispatching, so handlers that
// query the registry observe the state the signal describes.
func (r *Registry) emit(sig Signal, a *Activity) {
	r.publish()
	if r.metrics != nil {
		r.metrics.SignalsEmitted.WithLabelValues(string(sig)).Inc()
	}
	r.signals.emit(sig, a)
}

func (r *Registry) countWindowEvent(kind string) {
	if r.metrics != nil {
		r.metrics.WindowEvents.WithLabelValues(kind).Inc()
	}
}

func (r *Registry) updateGauges() {
	if r.metrics == nil {
		return
	}
	windowed := 0
	for _, act := range r.activities {
		if act.Window() != nil {
			windowed++
		}
	}
	r.metrics.ActivitiesTracked.Set(float64(len(r.activities)))
	r.metrics.ActivitiesWindowed.Set(float64(windowed))
}
