package palette

import (
	"errors"
	"testing"
)

func TestAllocatorOrder(t *testing.T) {
	a := NewAllocator()

	want := []Colour{Black, Blue, Green, Red, White, Yellow}
	for i, expected := range want {
		got, err := a.Next()
		if err != nil {
			t.Fatalf("Next() #%d returned error: %v", i, err)
		}
		if got != expected {
			t.Errorf("allocation #%d = %s, want %s", i, got, expected)
		}
	}
}

func TestAllocatorExhausted(t *testing.T) {
	a := NewAllocator()
	for i := 0; i < len(Default()); i++ {
		if _, err := a.Next(); err != nil {
			t.Fatalf("Next() #%d returned error: %v", i, err)
		}
	}

	if _, err := a.Next(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Next() after exhaustion = %v, want ErrExhausted", err)
	}
	// Exhaustion is permanent.
	if _, err := a.Next(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("second Next() after exhaustion = %v, want ErrExhausted", err)
	}
}

func TestAllocatorRemaining(t *testing.T) {
	a := NewAllocator()
	if got := a.Remaining(); got != 6 {
		t.Fatalf("Remaining() = %d, want 6", got)
	}
	a.Next()
	a.Next()
	if got := a.Remaining(); got != 4 {
		t.Fatalf("Remaining() after two allocations = %d, want 4", got)
	}
}

func TestAllocatorCustomPool(t *testing.T) {
	a := NewAllocator(Red, White)

	first, _ := a.Next()
	second, _ := a.Next()
	if first != Red || second != White {
		t.Errorf("custom pool allocated %s, %s; want Red, White", first, second)
	}
	if _, err := a.Next(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("Next() on drained custom pool = %v, want ErrExhausted", err)
	}
}
