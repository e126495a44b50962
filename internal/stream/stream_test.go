package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/domain"
)

func TestEmitterHappyPath(t *testing.T) {
	e, _ := NewEmitter(context.Background(), "req-1", time.Minute, 4)

	assert.True(t, e.Product(&domain.Product{Name: "a"}))
	assert.True(t, e.Product(&domain.Product{Name: "b"}))
	e.Done()

	var events []Event
	for ev := range e.Events() {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	assert.Equal(t, EventProduct, events[0].Type)
	assert.Equal(t, "a", events[0].Product.Name)
	assert.Equal(t, EventProduct, events[1].Type)
	assert.Equal(t, EventDone, events[2].Type)
	assert.Equal(t, "req-1", events[2].RequestID)
}

func TestEmitterDiscardsAfterClose(t *testing.T) {
	e, _ := NewEmitter(context.Background(), "req-1", time.Minute, 4)

	e.Done()

	// Late results are dropped, never panicking on the closed channel.
	assert.False(t, e.Product(&domain.Product{Name: "late"}))

	var count int
	for range e.Events() {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestEmitterDoneIsIdempotent(t *testing.T) {
	e, _ := NewEmitter(context.Background(), "req-1", time.Minute, 4)

	e.Done()
	e.Done()
	e.Fail(ErrTimeout)

	var events []Event
	for ev := range e.Events() {
		events = append(events, ev)
	}
	require.Len(t, events, 1)
	assert.Equal(t, EventDone, events[0].Type)
}

func TestEmitterTimeout(t *testing.T) {
	e, streamCtx := NewEmitter(context.Background(), "req-1", 30*time.Millisecond, 4)

	<-streamCtx.Done()

	var last Event
	for ev := range e.Events() {
		last = ev
	}

	assert.Equal(t, EventError, last.Type)
	assert.ErrorIs(t, last.Err, ErrTimeout)
}

func TestEmitterContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e, streamCtx := NewEmitter(ctx, "req-1", time.Minute, 4)

	cancel()
	<-streamCtx.Done()

	// Plain cancellation is not a timeout; the producer owns closing.
	assert.True(t, e.Product(&domain.Product{Name: "still open"}))
	e.Done()

	var types []EventType
	for ev := range e.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventProduct, EventDone}, types)
}
