// Package sequence provides date-scoped counters for visit token numbering.
// Each issuing day gets its own monotonically increasing sequence.
package sequence

import (
	"context"
	"sync"
	"time"
)

// Source hands out the next sequence value for the given day. Values start at
// 1 and never repeat for the same day within the lifetime of the source.
type Source interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}

// Memory is an in-process Source backed by a per-day counter map.
type Memory struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemory() *Memory {
	return &Memory{counts: make(map[string]int64)}
}

func (m *Memory) Next(_ context.Context, day time.Time) (int64, error) {
	key := day.Format("20060102")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}
