package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"duochat/models"
)

type fakeBus struct {
	mu         sync.Mutex
	publishErr error
	published  []string
	calls      int
	subscribe  func(call int, fn func(payload string)) error
}

func (b *fakeBus) Publish(_ context.Context, _ string, payload string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, payload)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, _ string, fn func(payload string)) error {
	b.mu.Lock()
	b.calls++
	call := b.calls
	b.mu.Unlock()
	return b.subscribe(call, fn)
}

func newTestRelay(hub *Hub, bus *fakeBus) *Relay {
	return &Relay{bus: bus, channel: "dm", hub: hub, retryMin: time.Millisecond, retryMax: 5 * time.Millisecond}
}

func TestRelay_NotifyDeliversLocallyWhenPublishFails(t *testing.T) {
	hub := startHub(t)
	alice := connect(t, hub, "c1", "alice")
	relay := newTestRelay(hub, &fakeBus{publishErr: errors.New("connection refused")})
	relay.subscribed.Store(true)

	relay.Notify(context.Background(), []string{"alice", "bob"}, models.Message{SenderID: "bob", Text: "hi"})

	msg := receive(t, alice)
	require.Equal(t, EventDirectMessage, msg.Event)
	require.Equal(t, "hi", msg.Data.(map[string]interface{})["text"])
}

func TestRelay_NotifyPublishesWhileSubscribed(t *testing.T) {
	hub := startHub(t)
	alice := connect(t, hub, "c1", "alice")
	bus := &fakeBus{}
	relay := newTestRelay(hub, bus)
	relay.subscribed.Store(true)

	relay.Notify(context.Background(), []string{"alice", "bob"}, models.Message{SenderID: "bob", Text: "hi"})

	// Delivery happens when the published envelope comes back on the channel.
	requireNothing(t, alice)
	require.Len(t, bus.published, 1)
	var env relayEnvelope
	require.NoError(t, json.Unmarshal([]byte(bus.published[0]), &env))
	require.Equal(t, []string{"alice", "bob"}, env.Recipients)

	relay.deliver([]byte(bus.published[0]))
	require.Equal(t, EventDirectMessage, receive(t, alice).Event)
}

func TestRelay_NotifyDeliversLocallyWhileUnsubscribed(t *testing.T) {
	hub := startHub(t)
	alice := connect(t, hub, "c1", "alice")
	bus := &fakeBus{}
	relay := newTestRelay(hub, bus)

	relay.Notify(context.Background(), []string{"alice", "bob"}, models.Message{SenderID: "bob", Text: "hi"})

	require.Equal(t, EventDirectMessage, receive(t, alice).Event)
	require.Len(t, bus.published, 1)
}

func TestRelay_RunResubscribesAfterFailure(t *testing.T) {
	hub := startHub(t)
	alice := connect(t, hub, "c1", "alice")

	event, err := json.Marshal(NewDirectMessage(models.Message{SenderID: "bob", Text: "after reconnect"}))
	require.NoError(t, err)
	payload, err := json.Marshal(relayEnvelope{Recipients: []string{"alice"}, Message: event})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var relay *Relay
	subscribedDuringCall := make([]bool, 0, 3)
	bus := &fakeBus{subscribe: func(call int, fn func(string)) error {
		subscribedDuringCall = append(subscribedDuringCall, relay.subscribed.Load())
		switch call {
		case 1:
			return errors.New("connection reset")
		case 2:
			fn(string(payload))
			return errors.New("connection reset")
		default:
			cancel()
			return context.Canceled
		}
	}}
	relay = newTestRelay(hub, bus)

	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}

	require.Equal(t, 3, bus.calls)
	require.Equal(t, []bool{true, true, true}, subscribedDuringCall)
	require.False(t, relay.subscribed.Load())
	require.Equal(t, "after reconnect", receive(t, alice).Data.(map[string]interface{})["text"])
}
