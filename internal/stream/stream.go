// Package stream provides the incremental result channel for streaming
// analyses: serialized sends from concurrent producers, a hard wall-clock
// timeout, and discard semantics for late results.
package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prodlens/prodlens/internal/domain"
)

// EventType discriminates stream events.
type EventType string

const (
	// EventProduct carries one analyzed product
	EventProduct EventType = "product"
	// EventDone signals successful completion
	EventDone EventType = "done"
	// EventError signals a stream-level failure. Already-emitted products
	// are never retracted.
	EventError EventType = "error"
)

// DefaultTimeout is the hard wall-clock limit on a streaming analysis.
const DefaultTimeout = 2 * time.Minute

// ErrTimeout is carried by the error event when the timeout fires.
var ErrTimeout = errors.New("streaming analysis timed out")

// Event is one streamed message.
type Event struct {
	Type      EventType       `json:"type"`
	RequestID string          `json:"request_id"`
	Product   *domain.Product `json:"product,omitempty"`
	Err       error           `json:"-"`
	Message   string          `json:"message,omitempty"`
}

// Emitter is the single shared sink for one streaming request. Concurrent
// producers serialize through its mutex; sends after close are discarded
// rather than panicking, which is how results of still-running tasks are
// dropped once the timeout has closed the channel.
type Emitter struct {
	requestID string
	ch        chan Event

	mu     sync.Mutex
	closed bool

	cancel context.CancelFunc
}

// NewEmitter creates an emitter and a derived context bounded by the hard
// timeout. The returned context must be used for all work feeding this
// emitter.
func NewEmitter(ctx context.Context, requestID string, timeout time.Duration, buffer int) (*Emitter, context.Context) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	streamCtx, cancel := context.WithTimeout(ctx, timeout)

	e := &Emitter{
		requestID: requestID,
		ch:        make(chan Event, buffer),
		cancel:    cancel,
	}

	// When the deadline fires before completion, surface it as a stream
	// error and close.
	go func() {
		<-streamCtx.Done()
		if errors.Is(streamCtx.Err(), context.DeadlineExceeded) {
			e.Fail(ErrTimeout)
		}
	}()

	return e, streamCtx
}

// Events returns the receive side of the stream.
func (e *Emitter) Events() <-chan Event {
	return e.ch
}

// Product emits one product. Returns false if the stream is already
// closed and the result was discarded.
func (e *Emitter) Product(p *domain.Product) bool {
	return e.send(Event{Type: EventProduct, RequestID: e.requestID, Product: p})
}

// Done signals successful completion and closes the stream.
func (e *Emitter) Done() {
	e.send(Event{Type: EventDone, RequestID: e.requestID})
	e.close()
}

// Fail signals a stream-level error and closes the stream.
func (e *Emitter) Fail(err error) {
	e.send(Event{Type: EventError, RequestID: e.requestID, Err: err, Message: err.Error()})
	e.close()
}

func (e *Emitter) send(ev Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}

	e.ch <- ev
	return true
}

func (e *Emitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	close(e.ch)
	e.cancel()
}
