package websocket

import (
	"context"
	"testing"
	"time"

	"tupilaqs/models"
)

// newTestClient builds a client without a connection. Only the queue and the
// stop/done channels are set, which is all the hub touches.
func newTestClient(hub *Hub, queue int) *Client {
	return &Client{
		hub:  hub,
		send: make(chan []byte, queue),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// runHub starts hub and stops it when the test ends, waiting for Run to
// return.
func runHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func receiveFrame(t *testing.T, c *Client) models.Envelope {
	t.Helper()
	select {
	case frame := <-c.send:
		env, err := models.Decode(frame)
		if err != nil {
			t.Fatalf("unexpected frame %s: %v", frame, err)
		}
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast not delivered")
	}
	return models.Envelope{}
}

func TestHubRegisterAndBroadcast(t *testing.T) {
	hub := runHub(t)

	c := newTestClient(hub, sendQueueSize)
	if !hub.Register(c) {
		t.Fatal("Register on a running hub failed")
	}

	env, _ := models.NewEnvelope(models.MsgVoteFeedback, models.VoteResult{Ident: "q1", Votes: 3})
	if err := hub.Broadcast(env); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if got := receiveFrame(t, c); got.Type != models.MsgVoteFeedback {
		t.Fatalf("expected %s, got %s", models.MsgVoteFeedback, got)
	}

	if n := hub.Len(); n != 1 {
		t.Fatalf("expected 1 client, got %d", n)
	}

	hub.Unregister(c)
	hub.Register(newTestClient(hub, 1))
	// Run takes one request at a time, so once this is received the
	// requests above have been applied.
	hub.Unregister(newTestClient(hub, 1))
	if n := hub.Len(); n != 1 {
		t.Fatalf("expected only the new client after unregister, got %d", n)
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	hub := runHub(t)

	sender := newTestClient(hub, sendQueueSize)
	other := newTestClient(hub, sendQueueSize)
	hub.Register(sender)
	hub.Register(other)

	env, _ := models.NewEnvelope(models.MsgVoteFeedback, models.VoteResult{Ident: "q1", Votes: 1})
	if err := hub.BroadcastExcept(env, sender); err != nil {
		t.Fatalf("BroadcastExcept: %v", err)
	}
	receiveFrame(t, other)

	// A second broadcast to everyone proves the first one has been handled.
	if err := hub.Broadcast(env); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	receiveFrame(t, other)
	receiveFrame(t, sender)

	if n := len(sender.send); n != 0 {
		t.Fatalf("sender got %d extra frames", n)
	}
}

func TestHubStopsClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)

	c := newTestClient(hub, 1)
	hub.Register(c)
	cancel()

	select {
	case <-c.stop:
	case <-time.After(2 * time.Second):
		t.Fatal("client not stopped when the hub shut down")
	}
	<-hub.done

	if hub.Register(newTestClient(hub, 1)) {
		t.Fatal("Register succeeded on a stopped hub")
	}
	// Must not block once the hub is gone.
	hub.Unregister(c)
}

func TestEnqueueDoesNotBlock(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}
	if !c.enqueue([]byte("a")) {
		t.Fatal("first enqueue failed")
	}
	if c.enqueue([]byte("b")) {
		t.Fatal("enqueue on a full queue should report false")
	}
}
