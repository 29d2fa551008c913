package eventbus

import (
	"testing"

	"github.com/marovik/fleetopt/core/events"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
}

func TestBusFanOut(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Publish(events.StageEvent{Stage: "solve", Action: "start"})
	for i, ch := range []<-chan Event{ch1, ch2} {
		ev, ok := (<-ch).(events.StageEvent)
		if !ok || ev.Stage != "solve" {
			t.Fatalf("subscriber %d: unexpected event %v", i, ev)
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	for i := 0; i < subBuffer+4; i++ {
		bus.Publish(i)
	}
	if len(ch) != subBuffer {
		t.Fatalf("expected %d buffered events, got %d", subBuffer, len(ch))
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}

func TestTypedBusDeliversDomainEvents(t *testing.T) {
	bus := NewTyped[events.SolveEvent]()
	ch := bus.Subscribe()
	bus.Publish(events.SolveEvent{RunID: "run-1", Status: "optimal"})
	ev := <-ch
	if ev.RunID != "run-1" || ev.Status != "optimal" {
		t.Fatalf("unexpected event %+v", ev)
	}
	bus.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed")
	}
}
