// Package timer drives the presenter's speaking timer: elapsed seconds for the
// current live question, pushed to every connection as timer_state.
package timer

import (
	"sync"
	"time"
)

// EventTimerState is the outbound event carrying the timer snapshot.
const EventTimerState = "timer_state"

// State is the broadcast timer snapshot.
type State struct {
	Seconds int  `json:"seconds"`
	Running bool `json:"running"`
}

// Publisher pushes timer state to every connection.
type Publisher interface {
	Broadcast(event string, payload interface{})
}

// Timer counts elapsed seconds while running and broadcasts once per second
// and on every control change. Not persisted; resets with the process.
type Timer struct {
	mu      sync.Mutex
	seconds int
	running bool
	stop    chan struct{}
	pub     Publisher
}

// New creates a stopped timer at zero.
func New(pub Publisher) *Timer {
	return &Timer{pub: pub}
}

// State returns the current snapshot.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{Seconds: t.seconds, Running: t.running}
}

// Start begins counting. No-op when already running.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	go t.run(stop)
	t.publish()
}

// Stop pauses the timer, keeping the elapsed count.
func (t *Timer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stop)
	t.stop = nil
	t.mu.Unlock()
	t.publish()
}

// Reset stops the timer and zeroes the count.
func (t *Timer) Reset() {
	t.mu.Lock()
	if t.running {
		close(t.stop)
		t.stop = nil
	}
	t.running = false
	t.seconds = 0
	t.mu.Unlock()
	t.publish()
}

// Restart zeroes the count and starts counting. Used when a question goes live.
func (t *Timer) Restart() {
	t.Reset()
	t.Start()
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.running {
				t.mu.Unlock()
				return
			}
			t.seconds++
			t.mu.Unlock()
			t.publish()
		}
	}
}

func (t *Timer) publish() {
	t.pub.Broadcast(EventTimerState, t.State())
}
