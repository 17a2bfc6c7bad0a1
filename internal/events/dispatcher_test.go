package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-service/internal/events"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := events.NewInMemoryDispatcher()

	var received []string
	d.Subscribe(events.EventTicketCreated, func(ctx context.Context, e events.Event) error {
		received = append(received, e.TicketID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: "tck-1",
	}))
	assert.Equal(t, []string{"tck-1"}, received)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := events.NewInMemoryDispatcher()

	var second bool
	d.Subscribe(events.EventSLABreach, func(ctx context.Context, e events.Event) error {
		return errors.New("boom")
	})
	d.Subscribe(events.EventSLABreach, func(ctx context.Context, e events.Event) error {
		second = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventSLABreach}))
	assert.True(t, second)
}

func TestDispatcherIgnoresUnrelatedTypes(t *testing.T) {
	d := events.NewInMemoryDispatcher()

	var called bool
	d.Subscribe(events.EventTicketAssigned, func(ctx context.Context, e events.Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventTicketCreated}))
	assert.False(t, called)
}
