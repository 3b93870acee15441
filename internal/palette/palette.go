// Package palette assigns player colours from a fixed, ordered pool.
package palette

import (
	"errors"
	"sync"
)

// Colour identifies a player within a game.
type Colour string

const (
	Black  Colour = "Black"
	Blue   Colour = "Blue"
	Green  Colour = "Green"
	Red    Colour = "Red"
	White  Colour = "White"
	Yellow Colour = "Yellow"
)

// ErrExhausted is returned by Next once every colour has been handed out.
var ErrExhausted = errors.New("no colours left in palette")

// Default returns the standard palette in allocation order.
func Default() []Colour {
	return []Colour{Black, Blue, Green, Red, White, Yellow}
}

// Allocator hands out colours from the head of an ordered pool. Colours are
// consumed, not borrowed: a colour is never returned to the pool, even if
// the player holding it disconnects.
type Allocator struct {
	mu        sync.Mutex
	remaining []Colour
}

// NewAllocator creates an allocator over the given colours, or over the
// default palette when none are given.
func NewAllocator(colours ...Colour) *Allocator {
	if len(colours) == 0 {
		colours = Default()
	}
	pool := make([]Colour, len(colours))
	copy(pool, colours)
	return &Allocator{remaining: pool}
}

// Next pops the next unused colour, or ErrExhausted when the pool is empty.
func (a *Allocator) Next() (Colour, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.remaining) == 0 {
		return "", ErrExhausted
	}
	next := a.remaining[0]
	a.remaining = a.remaining[1:]
	return next, nil
}

// Remaining reports how many colours are still available.
func (a *Allocator) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.remaining)
}
