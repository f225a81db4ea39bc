package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *recordingSink) Publish(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func TestBus_Publish(t *testing.T) {
	t.Parallel()

	sink := &recordingSink{err: errors.New("broker down")}
	bus := NewBus(sink)

	var got []Type
	bus.Subscribe(RoundWon, func(ctx context.Context, e Event) error {
		got = append(got, e.Type)
		return errors.New("handler failure is only logged")
	})
	bus.Subscribe(RoundWon, func(ctx context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bus.Publish(context.Background(), New(RoundWon, "a1", RoundWonEvent{AuctionID: "a1"}, at))
	bus.Publish(context.Background(), New(OrderCreated, "o1", OrderEvent{OrderID: "o1"}, at))

	require.Equal(t, []Type{RoundWon, RoundWon}, got)
	require.Len(t, sink.events, 2)
	require.NoError(t, bus.Close())
}

func TestBus_NilSink(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	called := false
	bus.Subscribe(PaymentFailed, func(ctx context.Context, e Event) error {
		called = true
		return nil
	})

	bus.Publish(context.Background(), New(PaymentFailed, "p1", PaymentEvent{PaymentID: "p1"}, time.Now()))
	require.True(t, called)
	require.NoError(t, bus.Close())
}

func TestToMessage(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	e := New(RoundWon, "a1", RoundWonEvent{AuctionID: "a1", BidID: "b1", Amount: decimal.RequireFromString("700.50")}, at)

	msg, err := toMessage(e)
	require.NoError(t, err)
	require.Equal(t, []byte("a1"), msg.Key)
	require.Equal(t, at, msg.Time)
	require.Equal(t, "event_type", msg.Headers[0].Key)
	require.Equal(t, []byte("round.won"), msg.Headers[0].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, "round.won", decoded["type"])
	payload := decoded["payload"].(map[string]any)
	require.Equal(t, "700.5", payload["amount"])
}
