// Package annotations provides a low-overhead event system for tracing
// strategy application and optimizer diagnostics.
package annotations

import (
	"sync"
	"time"
)

// Event name constants following hierarchical naming pattern
const (
	// Apply lifecycle
	ApplyInvoked   = "apply/invoked"
	ApplyComplete  = "apply/completed"
	StrategyOrder  = "apply/strategy-order"
	PipelineFrozen = "pipeline/frozen"

	// Per-strategy events
	StrategyApplied = "strategy/applied"
	StrategySkipped = "strategy/skipped"

	// A rule recognized its pattern but a precondition disqualified the
	// rewrite. Not an error; surfaced only here.
	RuleUnsupported = "rule/unsupported"

	// Errors
	ErrorInvariant     = "error/invariant"
	ErrorConfiguration = "error/configuration"
)

// Event represents a single annotation event during optimization.
type Event struct {
	Name    string                 // Event name using hierarchical constants above
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // Duration (End - Start)
	Data    map[string]interface{} // Additional event-specific data
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Collector accumulates events during an apply invocation.
type Collector struct {
	enabled bool
	handler Handler

	mu     sync.Mutex
	events []Event
}

// NewCollector creates a new annotation collector. A nil handler disables
// collection entirely, so a disabled collector is safe on hot paths.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
		events:  make([]Event, 0, 32),
	}
}

// Enabled reports whether events are being recorded.
func (c *Collector) Enabled() bool {
	return c != nil && c.enabled
}

// Add records a new event. Thread-safe, although optimization itself is
// single-threaded per pipeline.
func (c *Collector) Add(event Event) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()

	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event with timing information.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.Enabled() {
		return
	}

	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Annotate records an instantaneous event.
func (c *Collector) Annotate(name string, data map[string]interface{}) {
	if !c.Enabled() {
		return
	}
	now := time.Now()
	c.Add(Event{Name: name, Start: now, End: now, Data: data})
}

// Events returns a copy of all collected events.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Reset clears the collector for reuse.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}
