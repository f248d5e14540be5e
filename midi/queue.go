package midi

import "sync"

// Queue hands events from reader goroutines to the control loop. Push and
// Drain are mutually exclusive; order is arrival order.
type Queue struct {
	mu     sync.Mutex
	events []Event
	total  uint64
}

func NewQueue() *Queue {
	return &Queue{events: make([]Event, 0, 64)}
}

func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.total++
	q.mu.Unlock()
}

// Drain appends every queued event to dst, empties the queue and returns
// the extended slice.
func (q *Queue) Drain(dst []Event) []Event {
	q.mu.Lock()
	dst = append(dst, q.events...)
	q.events = q.events[:0]
	q.mu.Unlock()
	return dst
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Total counts every event pushed since creation
func (q *Queue) Total() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}
