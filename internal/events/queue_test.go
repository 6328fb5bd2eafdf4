package events

import (
	"testing"
	"time"
)

type testEvent struct {
	Seq int `json:"seq"`
}

func (testEvent) EventType() string { return "test_event" }

func TestQueueFIFO(t *testing.T) {
	t.Parallel()
	q := NewQueue()

	for i := 0; i < 5; i++ {
		q.Push(&testEvent{Seq: i})
	}

	drained := q.DrainAll()
	if len(drained) != 5 {
		t.Fatalf("DrainAll() returned %d events, want 5", len(drained))
	}
	for i, ev := range drained {
		if got := ev.(*testEvent).Seq; got != i {
			t.Errorf("event %d has seq %d, want %d", i, got, i)
		}
	}

	if q.Len() != 0 {
		t.Errorf("queue should be empty after drain, has %d", q.Len())
	}
	if drained = q.DrainAll(); drained != nil {
		t.Errorf("second drain should return nil, got %v", drained)
	}
}

func TestQueueWakeSignal(t *testing.T) {
	t.Parallel()
	q := NewQueue()

	select {
	case <-q.Wake():
		t.Fatal("wake should not fire before a push")
	default:
	}

	q.Push(&testEvent{Seq: 1})
	q.Push(&testEvent{Seq: 2}) // second signal coalesces

	select {
	case <-q.Wake():
	case <-time.After(time.Second):
		t.Fatal("wake did not fire after push")
	}

	// Both events are available even though only one signal was pending.
	if got := len(q.DrainAll()); got != 2 {
		t.Errorf("DrainAll() returned %d events, want 2", got)
	}
}

func TestQueueConcurrentProducer(t *testing.T) {
	t.Parallel()
	q := NewQueue()

	const n = 100
	go func() {
		for i := 0; i < n; i++ {
			q.Push(&testEvent{Seq: i})
		}
	}()

	var got []Event
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		got = append(got, q.DrainAll()...)
		if len(got) == n {
			break
		}
		select {
		case <-q.Wake():
		case <-deadline:
			t.Fatalf("timed out with %d of %d events", len(got), n)
		}
	}

	for i, ev := range got {
		if seq := ev.(*testEvent).Seq; seq != i {
			t.Fatalf("event %d has seq %d, order not preserved", i, seq)
		}
	}
}
