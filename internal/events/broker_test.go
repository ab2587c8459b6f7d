package events_test

import (
	"sync"
	"testing"
	"time"

	"github.com/content-lifecycle-api/internal/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestBroker_FanOut(t *testing.T) {
	b := events.NewBroker(4, zerolog.Nop())
	_, first := b.Subscribe()
	_, second := b.Subscribe()

	b.Emit("article:new", map[string]int64{"id": 7})

	e1 := <-first
	e2 := <-second
	if e1.Type != "article:new" || e2.Type != "article:new" {
		t.Errorf("Expected article:new for both subscribers, got %q and %q", e1.Type, e2.Type)
	}
	if e1.ID != e2.ID {
		t.Error("Subscribers should see the same event id")
	}
	if _, err := uuid.Parse(e1.ID); err != nil {
		t.Errorf("Event id should be a uuid: %v", err)
	}
	if e1.At.IsZero() {
		t.Error("Event timestamp should be set")
	}
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := events.NewBroker(1, zerolog.Nop())
	_, ch := b.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Emit("media:update", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}

	if got := b.Dropped(); got != 9 {
		t.Errorf("Expected 9 dropped events, got %d", got)
	}
	if e := <-ch; e.Payload != 0 {
		t.Errorf("Expected first event to be kept, got payload %v", e.Payload)
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	b := events.NewBroker(0, zerolog.Nop())
	id, ch := b.Subscribe()
	if b.Subscribers() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", b.Subscribers())
	}

	b.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Error("Channel should be closed after unsubscribe")
	}
	if b.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", b.Subscribers())
	}

	// unknown ids and repeated calls are harmless
	b.Unsubscribe(id)
	b.Emit("article:delete", nil)
}

func TestBroker_CloseEndsSubscriptions(t *testing.T) {
	b := events.NewBroker(0, zerolog.Nop())
	id, ch := b.Subscribe()

	b.Close()
	if _, open := <-ch; open {
		t.Error("Channel should be closed after Close")
	}
	if b.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", b.Subscribers())
	}

	_, late := b.Subscribe()
	if _, open := <-late; open {
		t.Error("Subscribing after Close should return a closed channel")
	}

	// emitting, unsubscribing and closing again are harmless
	b.Emit("media:new", nil)
	b.Unsubscribe(id)
	b.Close()
}

func TestBroker_ConcurrentEmit(t *testing.T) {
	b := events.NewBroker(1000, zerolog.Nop())
	_, ch := b.Subscribe()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Emit("article:publish", j)
			}
		}()
	}
	wg.Wait()

	if got := len(ch); got != 500 {
		t.Errorf("Expected 500 buffered events, got %d", got)
	}
}
