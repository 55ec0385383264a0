package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"helpdesk_backend/platform/logger"

	"github.com/stretchr/testify/assert"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishRunsEveryHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
			calls.Add(1)
			return ctx.Err()
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{NewBaseEvent()})
	cancel()
	bus.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	boom := errors.New("boom")
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error { return boom }))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), pingEvent{NewBaseEvent()})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, bus.PublishSync(context.Background(), otherEvent{}))
}

type otherEvent struct{ BaseEvent }

func (otherEvent) EventName() string { return "test.other" }
