package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns predetermined run ids in order, so stored run logs
// are identical between test runs.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator returning ids in order. With no ids
// it returns "run-1", "run-2", ... forever.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next id. Panics when a non-empty id list is exhausted,
// which means the test made more runs than it declared.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if len(g.ids) == 0 {
		return fmt.Sprintf("run-%d", g.idx)
	}
	if g.idx > len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	return g.ids[g.idx-1]
}
