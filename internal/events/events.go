package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	WORKFLOW_CHANNEL Channel = "workflow"
	FOLLOWUP_CHANNEL Channel = "followup"
)

type MessageType string

const (
	PING          MessageType = "ping"
	PONG          MessageType = "pong"
	ERROR         MessageType = "error"
	AUTH_REQUEST  MessageType = "auth_request"
	AUTH_RESPONSE MessageType = "auth_response"
	AUTH_SUCCESS  MessageType = "auth_success"
	AUTH_FAILURE  MessageType = "auth_failure"
	WORKFLOW      MessageType = "workflow"
	FOLLOWUP_DUE  MessageType = "followup_due"
)

type Event struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Channel   Channel        `json:"channel"`
	ActorID   *uuid.UUID     `json:"actorId,omitempty"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventHandler func(event Event) error

var ErrBusClosed = errors.New("event bus closed")

const (
	publishTimeout   = 5 * time.Second
	minListenBackoff = 500 * time.Millisecond
	maxListenBackoff = 30 * time.Second
)

// EventBus fans events out over valkey pub/sub so every API instance sees them. Without a
// client, or when valkey rejects a publish, delivery stays in-process.
type EventBus struct {
	client   valkey.Client
	log      logger.Logger
	handlers map[Channel][]EventHandler
	mutex    sync.RWMutex
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func New(client valkey.Client) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:   client,
		log:      logger.New("EventBus"),
		handlers: make(map[Channel][]EventHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.log.Function("Publish")

	eb.mutex.RLock()
	closed := eb.closed
	eb.mutex.RUnlock()
	if closed {
		return ErrBusClosed
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Channel == "" {
		event.Channel = channel
	}

	if eb.client == nil {
		eb.dispatch(channel, event)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(eb.ctx, publishTimeout)
	defer cancel()

	cmd := eb.client.B().Publish().Channel(channel.String()).Message(string(payload)).Build()
	if err := eb.client.Do(ctx, cmd).Error(); err != nil {
		log.Warn(
			"valkey publish failed, delivering locally only",
			"channel", channel,
			"eventID", event.ID,
			"error", err,
		)
		eb.dispatch(channel, event)
		return nil
	}

	log.Debug("Event published", "channel", channel, "eventID", event.ID, "eventType", event.Type)
	return nil
}

// Subscribe registers handler for channel. With a valkey client, delivery happens when
// the message comes back through the subscription, including messages this process
// published itself.
func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) error {
	eb.mutex.Lock()
	if eb.closed {
		eb.mutex.Unlock()
		return ErrBusClosed
	}
	first := len(eb.handlers[channel]) == 0
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	eb.mutex.Unlock()

	eb.log.Function("Subscribe").Info("Handler subscribed", "channel", channel)

	if first && eb.client != nil {
		eb.wg.Add(1)
		go eb.listen(channel)
	}

	return nil
}

// dispatch runs every handler for channel on its own goroutine; a failing handler is
// logged and does not affect the others.
func (eb *EventBus) dispatch(channel Channel, event Event) {
	eb.mutex.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[channel]...)
	eb.mutex.RUnlock()

	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(event); err != nil {
				eb.log.Function("dispatch").Er(
					"event handler failed",
					err,
					"channel", channel,
					"eventID", event.ID,
					"eventType", event.Type,
				)
			}
		}(handler)
	}
}

// listen keeps a subscription open until Close, reconnecting with capped backoff.
func (eb *EventBus) listen(channel Channel) {
	defer eb.wg.Done()
	log := eb.log.Function("listen")

	var backoff time.Duration
	for {
		connectedAt := time.Now()
		err := eb.client.Receive(
			eb.ctx,
			eb.client.B().Subscribe().Channel(channel.String()).Build(),
			func(msg valkey.PubSubMessage) {
				var event Event
				if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
					log.Er("failed to decode event", err, "channel", channel)
					return
				}
				eb.dispatch(channel, event)
			},
		)
		if eb.ctx.Err() != nil {
			return
		}

		backoff = nextListenBackoff(backoff, time.Since(connectedAt))
		log.Warn("subscription dropped, retrying", "channel", channel, "error", err, "backoff", backoff)
		select {
		case <-eb.ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// nextListenBackoff returns the wait before reconnecting. A subscription that stayed up
// longer than the previous wait counts as healthy and starts over from the minimum.
func nextListenBackoff(previous, uptime time.Duration) time.Duration {
	if uptime > previous {
		return minListenBackoff
	}

	next := previous * 2
	if next > maxListenBackoff {
		return maxListenBackoff
	}
	return next
}

func (eb *EventBus) Close() error {
	eb.mutex.Lock()
	if eb.closed {
		eb.mutex.Unlock()
		return nil
	}
	eb.closed = true
	eb.mutex.Unlock()

	eb.cancel()
	eb.wg.Wait()

	eb.log.Function("Close").Info("EventBus closed")
	return nil
}
