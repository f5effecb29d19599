// Package notify carries the user-facing signal contract. Workflow and
// gateway code emit events; a presentation sink decides how they look.
package notify

import (
	"fmt"
	"io"
	"sync"
)

type Signal int

const (
	LoadingStarted Signal = iota
	LoadingCleared
	Succeeded
	Failed
	Notice
	NavigateTo
)

func (s Signal) String() string {
	switch s {
	case LoadingStarted:
		return "loading-started"
	case LoadingCleared:
		return "loading-cleared"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Notice:
		return "notice"
	case NavigateTo:
		return "navigate-to"
	default:
		return "unknown"
	}
}

type Event struct {
	Signal  Signal
	Message string
	Route   string
}

type Sink interface {
	Emit(Event)
}

// Console renders events as plain terminal lines.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Emit(ev Event) {
	switch ev.Signal {
	case LoadingStarted:
		fmt.Fprintln(c.out, "Loading...")
	case LoadingCleared:
		// Success is silent at the gateway level.
	case Succeeded:
		fmt.Fprintln(c.out, ev.Message)
	case Failed:
		fmt.Fprintf(c.out, "Error: %s\n", ev.Message)
	case Notice:
		fmt.Fprintln(c.out, ev.Message)
	case NavigateTo:
		// Navigation is acted on by the consuming command, not printed.
	}
}

type discard struct{}

func (discard) Emit(Event) {}

// Discard is a sink that drops every event.
var Discard Sink = discard{}

// Recorder captures events for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Count(s Signal) int {
	n := 0
	for _, ev := range r.Events() {
		if ev.Signal == s {
			n++
		}
	}
	return n
}

func (r *Recorder) Last(s Signal) (Event, bool) {
	events := r.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Signal == s {
			return events[i], true
		}
	}
	return Event{}, false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
