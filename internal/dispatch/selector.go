package dispatch

import (
	"math/rand/v2"
	"sync"
)

// Selector picks one of n candidate templates. Implementations must be
// safe for concurrent use and return an index in [0, n).
type Selector interface {
	Pick(n int) int
}

// SelectorFunc adapts a plain function to Selector.
type SelectorFunc func(n int) int

func (f SelectorFunc) Pick(n int) int { return f(n) }

// RandomSelector picks uniformly at random.
func RandomSelector() Selector {
	return SelectorFunc(func(n int) int { return rand.IntN(n) })
}

// FirstSelector always picks the first template.
func FirstSelector() Selector {
	return SelectorFunc(func(int) int { return 0 })
}

// CycleSelector walks the candidates in order, wrapping around.
type CycleSelector struct {
	mu   sync.Mutex
	next int
}

func (c *CycleSelector) Pick(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.next % n
	c.next++
	return i
}
