package events

import (
	"sync"
	"testing"
)

func TestIsValueEdit(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  bool
	}{
		{"input event", Event{Kind: KindInput, Name: "name", Target: "input"}, true},
		{"change event", Event{Kind: KindChange, Name: "country", Target: "select"}, true},
		{"click on input", Event{Kind: KindClick, Name: "plan", Target: "input"}, true},
		{"click on button", Event{Kind: KindClick, Name: "submit", Target: "button"}, false},
		{"click without target", Event{Kind: KindClick, Name: "plan"}, false},
		{"focus out", Event{Kind: KindFocusOut, Name: "name", Target: "input"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValueEdit(tt.event); got != tt.want {
				t.Errorf("IsValueEdit(%+v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestEventValid(t *testing.T) {
	tests := []struct {
		event Event
		want  bool
	}{
		{Event{Kind: KindInput, Name: "a"}, true},
		{Event{Kind: KindFocusOut, Name: "a"}, true},
		{Event{Kind: KindInput}, false},
		{Event{Kind: "keydown", Name: "a"}, false},
	}
	for _, tt := range tests {
		if got := tt.event.Valid(); got != tt.want {
			t.Errorf("%+v.Valid() = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []int

	for i := 1; i <= 3; i++ {
		n := i
		bus.Subscribe(func(Event) { order = append(order, n) })
	}

	bus.Publish(Event{Kind: KindInput, Name: "x"})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", order)
	}
}

func TestBusFiltersByKind(t *testing.T) {
	bus := NewBus()
	var focus, all int

	bus.Subscribe(func(Event) { focus++ }, KindFocusOut)
	bus.Subscribe(func(Event) { all++ })

	bus.Publish(Event{Kind: KindFocusOut, Name: "a"})
	bus.Publish(Event{Kind: KindInput, Name: "a"})
	bus.Publish(Event{Kind: KindClick, Name: "a"})

	if focus != 1 {
		t.Errorf("focus subscriber got %d events, want 1", focus)
	}
	if all != 3 {
		t.Errorf("catch-all subscriber got %d events, want 3", all)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0

	sub := bus.Subscribe(func(Event) { calls++ })
	if bus.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", bus.Len())
	}

	sub.Unsubscribe()
	sub.Unsubscribe()

	bus.Publish(Event{Kind: KindInput, Name: "a"})

	if calls != 0 {
		t.Errorf("handler called %d times after unsubscribe", calls)
	}
	if bus.Len() != 0 {
		t.Errorf("Len() = %d after unsubscribe, want 0", bus.Len())
	}
}

func TestBusHandlerMayUnsubscribe(t *testing.T) {
	bus := NewBus()
	var sub Subscription
	calls := 0
	sub = bus.Subscribe(func(Event) {
		calls++
		sub.Unsubscribe()
	})

	bus.Publish(Event{Kind: KindInput, Name: "a"})
	bus.Publish(Event{Kind: KindInput, Name: "a"})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	count := 0
	bus.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(Event{Kind: KindInput, Name: "a"})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("count = %d, want 50", count)
	}
}
