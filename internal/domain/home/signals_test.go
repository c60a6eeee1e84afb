package home

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherRegistrationOrder(t *testing.T) {
	d := newDispatcher()

	var order []int
	d.subscribe(SignalActivityAdded, func(*Activity) { order = append(order, 1) })
	d.subscribe(SignalActivityAdded, func(*Activity) { order = append(order, 2) })
	d.subscribe(SignalActivityAdded, func(*Activity) { order = append(order, 3) })

	d.emit(SignalActivityAdded, nil)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDispatcherKindIsolation(t *testing.T) {
	d := newDispatcher()

	added := 0
	removed := 0
	d.subscribe(SignalActivityAdded, func(*Activity) { added++ })
	d.subscribe(SignalActivityRemoved, func(*Activity) { removed++ })

	d.emit(SignalActivityAdded, nil)
	d.emit(SignalActivityAdded, nil)

	assert.Equal(t, 2, added)
	assert.Equal(t, 0, removed)
}

func TestDispatcherCatchAll(t *testing.T) {
	d := newDispatcher()

	var seen []Signal
	d.subscribeAll(func(sig Signal, _ *Activity) { seen = append(seen, sig) })

	for _, sig := range AllSignals() {
		d.emit(sig, nil)
	}

	assert.Equal(t, AllSignals(), seen)
}

func TestDispatcherNilPayload(t *testing.T) {
	d := newDispatcher()

	var got *Activity = newActivity(nil, "sentinel", nil)
	d.subscribe(SignalPendingChanged, func(a *Activity) { got = a })

	d.emit(SignalPendingChanged, nil)
	assert.Nil(t, got)
}
