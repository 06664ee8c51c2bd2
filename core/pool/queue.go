package pool

// Queue is a FIFO queue backed by a slice.
type Queue[T any] struct {
	items []T
}

// NewQueue returns a queue holding items in order, head first.
func NewQueue[T any](items ...T) *Queue[T] {
	q := &Queue[T]{}
	q.items = append(q.items, items...)
	return q
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int { return len(q.items) }

// PushBack appends v at the tail.
func (q *Queue[T]) PushBack(v T) { q.items = append(q.items, v) }

// PushFront inserts v at the head.
func (q *Queue[T]) PushFront(v T) {
	q.items = append(q.items, v)
	copy(q.items[1:], q.items[:len(q.items)-1])
	q.items[0] = v
}

// PopFront removes and returns the head. ok is false on an empty queue.
func (q *Queue[T]) PopFront() (v T, ok bool) {
	if len(q.items) == 0 {
		return v, false
	}
	v = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return v, true
}

// Items returns a copy of the queue contents, head first.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
