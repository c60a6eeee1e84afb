package home

// Signal identifies one kind of registry change notification.
type Signal string

const (
	SignalActivityAdded   Signal = "activity-added"
	SignalActivityStarted Signal = "activity-started"
	SignalActivityRemoved Signal = "activity-removed"
	SignalActiveChanged   Signal = "active-activity-changed"
	SignalPendingChanged  Signal = "pending-activity-changed"
)

// AllSignals lists every signal kind the registry emits.
func AllSignals() []Signal {
	return []Signal{
		SignalActivityAdded,
		SignalActivityStarted,
		SignalActivityRemoved,
		SignalActiveChanged,
		SignalPendingChanged,
	}
}

// Handler receives one signal payload. The payload is nil only for the
// active/pending selector signals when the selector was cleared.
type Handler func(activity *Activity)

// CatchAllHandler receives every signal with its kind.
type CatchAllHandler func(sig Signal, activity *Activity)

// dispatcher is a typed signal fanout: per-kind subscriber lists invoked
// synchronously in registration order, then catch-all subscribers.
//
// Dispatch happens inside the registry's event turn. The registry publishes
// a read snapshot before every signal, so handlers may call its exported
// accessors and observe the state the signal describes: during
// activity-removed the record is still a member. Handlers must not call
// Subscribe or the event handlers themselves.
type dispatcher struct {
	byKind   map[Signal][]Handler
	catchAll []CatchAllHandler
}

func newDispatcher() *dispatcher {
	return &dispatcher{byKind: make(map[Signal][]Handler)}
}

func (d *dispatcher) subscribe(sig Signal, h Handler) {
	d.byKind[sig] = append(d.byKind[sig], h)
}

func (d *dispatcher) subscribeAll(h CatchAllHandler) {
	d.catchAll = append(d.catchAll, h)
}

func (d *dispatcher) emit(sig Signal, activity *Activity) {
	for _, h := range d.byKind[sig] {
		h(activity)
	}
	for _, h := range d.catchAll {
		h(sig, activity)
	}
}
