package testutil

import "sync"

// SeqClock hands out logical sequence numbers in call order. It satisfies
// store.Clock, so cache rows and runs recorded in a test get predictable
// seq values whatever the database already holds.
type SeqClock struct {
	mu   sync.Mutex
	next int64
}

// NewSeqClock returns a clock whose first Next is 1.
func NewSeqClock() *SeqClock {
	return NewSeqClockFrom(1)
}

// NewSeqClockFrom returns a clock whose first Next is start.
func NewSeqClockFrom(start int64) *SeqClock {
	return &SeqClock{next: start}
}

// Next returns the current value and advances the clock.
func (c *SeqClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.next
	c.next++
	return v
}

// Peek returns the value the next call to Next will return.
func (c *SeqClock) Peek() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}
