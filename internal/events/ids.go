package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDSource hands out event ids. The orchestrator owns one per process or per
// session; nothing in this package keeps a global counter.
type IDSource interface {
	NextID(prefix string) string
}

// Counter is a monotonic id source, e.g. "nbhd-1", "nbhd-2".
type Counter struct {
	mu   sync.Mutex
	next uint64
}

// NewCounter starts numbering after start.
func NewCounter(start uint64) *Counter {
	return &Counter{next: start}
}

// NextID implements IDSource.
func (c *Counter) NextID(prefix string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	return fmt.Sprintf("%s-%d", prefix, c.next)
}

// UUIDs issues random v4 ids, safe across restarts and processes.
type UUIDs struct{}

// NextID implements IDSource.
func (UUIDs) NextID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
