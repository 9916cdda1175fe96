package cmterm

import "fmt"

// RingBuffer is a fixed-capacity circular store of the most recently pushed
// values. Slots start at the zero value and are overwritten oldest-first once
// the buffer is full. It carries no locking of its own; the owning Log
// serializes access.
type RingBuffer[T any] struct {
	slots []T
	pos   int
}

// NewRingBuffer creates a buffer holding at most capacity values.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		panic(fmt.Sprintf("cmterm: ring buffer capacity must be positive, got %d", capacity))
	}
	return &RingBuffer[T]{slots: make([]T, capacity)}
}

// Cap returns the fixed capacity.
func (b *RingBuffer[T]) Cap() int {
	return len(b.slots)
}

// Push stores v, silently discarding the oldest value once the buffer is
// full. Always succeeds in O(1).
func (b *RingBuffer[T]) Push(v T) {
	b.pos = (b.pos + 1) % len(b.slots)
	b.slots[b.pos] = v
}

// PeekLast returns the n most recently pushed values, most recent first.
// Slots never pushed to are returned as zero values. Peeking past the
// capacity is a programming error, not a runtime condition.
func (b *RingBuffer[T]) PeekLast(n int) []T {
	if n > len(b.slots) {
		panic(fmt.Sprintf("cmterm: peek of %d exceeds ring buffer capacity %d", n, len(b.slots)))
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		idx := b.pos - i
		if idx < 0 {
			idx += len(b.slots)
		}
		out = append(out, b.slots[idx])
	}
	return out
}
