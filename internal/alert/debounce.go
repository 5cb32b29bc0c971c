package alert

import (
	"sync"

	"github.com/google/uuid"
)

// Debouncer is a per-channel 2-state machine (idle, alerting) that collapses a
// sustained unauthorized condition into a single open alert. A channel is an
// alerting context, scoped per camera location.
//
// Transitions are driven only by detection-tick outcomes, never by a timer:
// a tick with an alertable detection on an idle channel is a rising edge (one
// alert, one sound); further alertable ticks raise nothing; a clean tick
// returns the channel to idle and re-arms the edge.
type Debouncer struct {
	mu       sync.Mutex
	channels map[string]*channelState
}

type channelState struct {
	active      bool
	activeAlert uuid.UUID
}

// NewDebouncer constructs a debouncer with no channels armed.
func NewDebouncer() *Debouncer {
	return &Debouncer{channels: make(map[string]*channelState)}
}

// Observe feeds one tick's outcome for a channel into the machine and reports
// whether this tick is a rising edge (idle -> alerting).
func (d *Debouncer) Observe(channel string, triggered bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, ok := d.channels[channel]
	if !ok {
		state = &channelState{}
		d.channels[channel] = state
	}

	if !triggered {
		state.active = false
		state.activeAlert = uuid.Nil
		return false
	}
	if state.active {
		return false
	}
	state.active = true
	return true
}

// NoteAlert records the alert opened on the most recent rising edge.
func (d *Debouncer) NoteAlert(channel string, id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if state, ok := d.channels[channel]; ok && state.active {
		state.activeAlert = id
	}
}

// ActiveAlert returns the open alert for a channel, if it is alerting.
func (d *Debouncer) ActiveAlert(channel string) (uuid.UUID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	state, ok := d.channels[channel]
	if !ok || !state.active || state.activeAlert == uuid.Nil {
		return uuid.Nil, false
	}
	return state.activeAlert, true
}
