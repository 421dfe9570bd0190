package loop

import "sync"

// Queue accumulates normalized events in arrival order. The runner swaps the
// backing slice out before delivery so no lock is held while the application
// callback runs.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Swap exchanges the queue's backing slice with buf and returns the
// accumulated events. Callers pass the previous back buffer (truncated) so the
// two slices are reused alternately.
func (q *Queue) Swap(buf []Event) []Event {
	q.mu.Lock()
	events := q.events
	q.events = buf[:0]
	q.mu.Unlock()
	return events
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
