package sandbox

import "sync"

// recorder collects events and counters. Once sealed it drops everything,
// so nothing is appended after a run's result has been produced.
type recorder struct {
	mu       sync.Mutex
	events   []Event
	counters Counters
	sealed   bool
}

func newRecorder() *recorder {
	return &recorder{events: []Event{}}
}

// beginTest numbers a new test. The number is taken when test() is called,
// so nested tests do not shift their parent's number.
func (r *recorder) beginTest() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return 0
	}
	r.counters.Tests++
	return r.counters.Tests
}

func (r *recorder) pass(index int, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.counters.Passed++
	r.events = append(r.events, Event{Kind: EventPass, Index: index, Description: description})
}

func (r *recorder) fail(index int, description, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.counters.Failed++
	r.events = append(r.events, Event{Kind: EventFail, Index: index, Description: description, Message: message})
}

func (r *recorder) log(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	r.events = append(r.events, Event{Kind: EventLog, Message: message})
}

func (r *recorder) seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// snapshot seals the recorder and returns a copy of its contents
func (r *recorder) snapshot() ([]Event, Counters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	events := make([]Event, len(r.events))
	copy(events, r.events)
	return events, r.counters
}
