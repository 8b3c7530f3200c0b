package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var received []Event
	d.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		received = append(received, event)
		return nil
	})
	d.Subscribe(EventTicketModified, func(ctx context.Context, event Event) error {
		t.Fatal("wrong event type delivered")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketCreated, TicketID: "INC0000A1"})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "INC0000A1", received[0].TicketID)
}

func TestDispatcherContinuesPastHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()

	calls := 0
	d.Subscribe(EventTicketStatusChanged, func(ctx context.Context, event Event) error {
		calls++
		return errors.New("handler failure")
	})
	d.Subscribe(EventTicketStatusChanged, func(ctx context.Context, event Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketStatusChanged})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCommented}))
}
