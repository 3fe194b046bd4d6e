// Package ring provides a fixed-capacity FIFO buffer that drops its oldest
// element when a push would exceed capacity.
package ring

// Buffer is a bounded deque. The zero value is not usable; use New.
// Buffer is not safe for concurrent use.
type Buffer[T any] struct {
	items []T
	head  int
	size  int
}

// New creates a Buffer holding at most capacity elements.
// A capacity below 1 is treated as 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v as the newest element. When the buffer is full the oldest
// element is evicted and returned with ok set to true.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	if b.size == len(b.items) {
		evicted = b.items[b.head]
		b.items[b.head] = v
		b.head = (b.head + 1) % len(b.items)
		return evicted, true
	}

	b.items[(b.head+b.size)%len(b.items)] = v
	b.size++
	return evicted, false
}

// Items returns a copy of all elements, oldest first.
func (b *Buffer[T]) Items() []T {
	return b.Newest(b.size)
}

// Newest returns a copy of up to n of the most recent elements, oldest first.
func (b *Buffer[T]) Newest(n int) []T {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []T{}
	}

	out := make([]T, n)
	start := b.size - n
	for i := range n {
		out[i] = b.items[(b.head+start+i)%len(b.items)]
	}
	return out
}

// Len reports the number of stored elements.
func (b *Buffer[T]) Len() int {
	return b.size
}

// Cap reports the maximum number of elements.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Clear removes every element.
func (b *Buffer[T]) Clear() {
	clear(b.items)
	b.head = 0
	b.size = 0
}

// From builds a Buffer of the given capacity and pushes vs in order, so only
// the newest capacity elements remain.
func From[T any](capacity int, vs []T) *Buffer[T] {
	b := New[T](capacity)
	for _, v := range vs {
		b.Push(v)
	}
	return b
}
