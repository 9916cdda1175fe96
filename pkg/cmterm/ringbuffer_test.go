package cmterm

import (
	"fmt"
	"testing"
)

func TestRingBufferRetainsLastCapacityValues(t *testing.T) {
	const capacity = 8
	const pushes = 37

	buf := NewRingBuffer[string](capacity)
	for i := 0; i < pushes; i++ {
		buf.Push(fmt.Sprintf("v%d", i))
	}

	got := buf.PeekLast(capacity)
	if len(got) != capacity {
		t.Fatalf("PeekLast(%d) returned %d values", capacity, len(got))
	}
	// Most recent first: v36, v35, ...
	for i, v := range got {
		want := fmt.Sprintf("v%d", pushes-1-i)
		if v != want {
			t.Errorf("PeekLast[%d] = %q, want %q", i, v, want)
		}
	}
}

func TestRingBufferPartialFill(t *testing.T) {
	buf := NewRingBuffer[int](16)
	buf.Push(1)
	buf.Push(2)
	buf.Push(3)

	got := buf.PeekLast(2)
	if got[0] != 3 || got[1] != 2 {
		t.Errorf("PeekLast(2) = %v, want [3 2]", got)
	}
}

func TestRingBufferUnpushedSlotsAreZero(t *testing.T) {
	buf := NewRingBuffer[string](4)
	buf.Push("only")

	got := buf.PeekLast(4)
	if got[0] != "only" {
		t.Errorf("most recent = %q, want %q", got[0], "only")
	}
	for i := 1; i < 4; i++ {
		if got[i] != "" {
			t.Errorf("slot %d = %q, want empty", i, got[i])
		}
	}
}

func TestRingBufferPeekPastCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("PeekLast past capacity did not panic")
		}
	}()
	NewRingBuffer[int](2).PeekLast(3)
}
