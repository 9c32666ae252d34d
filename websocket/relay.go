package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/valkey-io/valkey-go"

	"duochat/models"
)

const (
	resubscribeMin = 500 * time.Millisecond
	resubscribeMax = 30 * time.Second
)

// pubSub is the slice of Valkey the relay talks to.
type pubSub interface {
	Publish(ctx context.Context, channel, payload string) error
	// Subscribe blocks, calling fn for every payload, until ctx is done or
	// the subscription breaks.
	Subscribe(ctx context.Context, channel string, fn func(payload string)) error
}

type valkeyPubSub struct {
	client valkey.Client
}

func (v valkeyPubSub) Publish(ctx context.Context, channel, payload string) error {
	return v.client.Do(ctx, v.client.B().Publish().Channel(channel).Message(payload).Build()).Error()
}

func (v valkeyPubSub) Subscribe(ctx context.Context, channel string, fn func(payload string)) error {
	return v.client.Receive(ctx, v.client.B().Subscribe().Channel(channel).Build(), func(msg valkey.PubSubMessage) {
		fn(msg.Message)
	})
}

// Relay fans direct-message pushes out across server instances through a
// Valkey pub/sub channel. Every instance, including the publisher, delivers
// received events to its own hub.
type Relay struct {
	bus        pubSub
	channel    string
	hub        *Hub
	subscribed atomic.Bool
	retryMin   time.Duration
	retryMax   time.Duration
}

type relayEnvelope struct {
	Recipients []string        `json:"recipients"`
	Message    json.RawMessage `json:"message"`
}

func NewRelay(client valkey.Client, channel string, hub *Hub) (*Relay, error) {
	if client == nil {
		return nil, errors.New("websocket: valkey client must not be nil")
	}
	if channel == "" {
		return nil, errors.New("websocket: relay channel must not be empty")
	}
	if hub == nil {
		return nil, errors.New("websocket: hub must not be nil")
	}
	return &Relay{
		bus:      valkeyPubSub{client: client},
		channel:  channel,
		hub:      hub,
		retryMin: resubscribeMin,
		retryMax: resubscribeMax,
	}, nil
}

// Notify publishes the message for all instances. While this instance is not
// subscribed, or if publishing fails, the message is delivered to local
// connections directly.
func (r *Relay) Notify(ctx context.Context, participants []string, m models.Message) {
	event, err := json.Marshal(NewDirectMessage(m))
	if err != nil {
		slog.Error("failed to encode relay event", "err", err)
		return
	}
	data, err := json.Marshal(relayEnvelope{Recipients: participants, Message: event})
	if err != nil {
		slog.Error("failed to encode relay envelope", "err", err)
		return
	}

	if err := r.bus.Publish(ctx, r.channel, string(data)); err != nil {
		slog.Warn("relay publish failed, delivering locally", "dialog_id", m.DialogID, "err", err)
		r.hub.sendRaw(participants, event)
		return
	}
	if !r.subscribed.Load() {
		r.hub.sendRaw(participants, event)
	}
}

// Run keeps the relay subscribed until ctx is done, re-subscribing with
// exponential backoff whenever the subscription drops.
func (r *Relay) Run(ctx context.Context) {
	backoff := r.retryMin
	for {
		started := time.Now()
		r.subscribed.Store(true)
		err := r.bus.Subscribe(ctx, r.channel, func(payload string) {
			r.deliver([]byte(payload))
		})
		r.subscribed.Store(false)
		if ctx.Err() != nil {
			return
		}

		if time.Since(started) > r.retryMax {
			backoff = r.retryMin
		}
		slog.Warn("relay subscription lost, resubscribing", "channel", r.channel, "backoff", backoff, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, r.retryMax)
	}
}

func (r *Relay) deliver(payload []byte) {
	var env relayEnvelope
	if err := json.Unmarshal(payload, &env); err != nil || len(env.Message) == 0 {
		slog.Warn("dropping malformed relay envelope", "err", err)
		return
	}
	r.hub.sendRaw(env.Recipients, env.Message)
}
