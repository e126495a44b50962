// Package tlmt defines the telemetry boundary: anonymous usage events,
// pluggable backends, disabled entirely by configuration.
package tlmt

import "context"

// Event is one telemetry event.
type Event struct {
	Name       string
	Properties map[string]any
}

// NewEvent creates an event.
func NewEvent(name string, properties map[string]any) Event {
	return Event{Name: name, Properties: properties}
}

// Telemetry sends events to a backend.
type Telemetry interface {
	Send(ctx context.Context, event Event) error
	Close() error
}
