package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_LocalDeliveryWithoutClient(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	received := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(WORKFLOW_CHANNEL, func(event Event) error {
		received <- event
		return nil
	}))

	err := bus.Publish(WORKFLOW_CHANNEL, Event{
		Type: WORKFLOW,
		Data: map[string]any{"kind": "onQuoteSent"},
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, WORKFLOW_CHANNEL, event.Channel)
		assert.False(t, event.Timestamp.IsZero())
		assert.Equal(t, "onQuoteSent", event.Data["kind"])
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestEventBus_OtherChannelNotNotified(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	received := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(FOLLOWUP_CHANNEL, func(event Event) error {
		received <- event
		return nil
	}))

	require.NoError(t, bus.Publish(WORKFLOW_CHANNEL, Event{Type: WORKFLOW}))

	select {
	case <-received:
		t.Fatal("handler on another channel was called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_ClosedRejectsPublish(t *testing.T) {
	bus := New(nil)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(WORKFLOW_CHANNEL, Event{Type: WORKFLOW}), ErrBusClosed)
	assert.ErrorIs(t, bus.Subscribe(WORKFLOW_CHANNEL, func(Event) error { return nil }), ErrBusClosed)
}

func TestNextListenBackoff(t *testing.T) {
	tests := []struct {
		name     string
		previous time.Duration
		uptime   time.Duration
		want     time.Duration
	}{
		{name: "first drop", previous: 0, uptime: time.Millisecond, want: minListenBackoff},
		{name: "flapping doubles", previous: time.Second, uptime: 100 * time.Millisecond, want: 2 * time.Second},
		{name: "capped", previous: maxListenBackoff, uptime: time.Second, want: maxListenBackoff},
		{name: "healthy run resets", previous: maxListenBackoff, uptime: time.Hour, want: minListenBackoff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextListenBackoff(tt.previous, tt.uptime))
		})
	}
}
