package events

import "sync"

// Queue is an unbounded FIFO buffer between a single producer (a run's
// pump goroutine) and any number of consumers. Consumers drain whatever
// is available without blocking and park on Wake for the next push.
// Concurrent consumers compete for items; each item is delivered to
// exactly one of them.
type Queue struct {
	mu    sync.Mutex
	items []Event
	wake  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Push appends an event and signals one parked consumer. Never blocks.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// DrainAll removes and returns every buffered event in FIFO order.
// Returns nil when the queue is empty.
func (q *Queue) DrainAll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	return drained
}

// Len returns the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Wake returns the channel signaled on each push. It carries at most one
// pending signal, so consumers must re-drain after receiving and must
// pair it with a termination channel in the same select.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}
