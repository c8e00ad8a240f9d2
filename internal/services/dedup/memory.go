package dedup

import (
	"context"
	"sync"
	"time"
)

// purgeEvery bounds how often Record sweeps expired entries.
const purgeEvery = 64

// Memory is the in-process dedup cache. Expired entries are purged lazily on
// lookup and amortized over every purgeEvery records, so memory stays
// proportional to the active ticker set.
type Memory struct {
	mu       sync.Mutex
	cooldown time.Duration
	seen     map[string]time.Time
	records  int
	now      func() time.Time
}

func NewMemory(cooldown time.Duration) *Memory {
	if cooldown <= 0 {
		cooldown = 300 * time.Second
	}
	return &Memory{
		cooldown: cooldown,
		seen:     make(map[string]time.Time),
		now:      time.Now,
	}
}

func (m *Memory) IsDuplicate(_ context.Context, ticker, exchange, direction string) bool {
	key := cacheKey(ticker, exchange, direction)
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.seen[key]
	if !ok {
		return false
	}
	if m.now().Sub(at) >= m.cooldown {
		delete(m.seen, key)
		return false
	}
	return true
}

func (m *Memory) Record(_ context.Context, ticker, exchange, direction string) {
	key := cacheKey(ticker, exchange, direction)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = m.now()
	m.records++
	if m.records%purgeEvery == 0 {
		m.purgeLocked()
	}
}

func (m *Memory) Size(_ context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func (m *Memory) purgeLocked() {
	cutoff := m.now().Add(-m.cooldown)
	for key, at := range m.seen {
		if at.Before(cutoff) {
			delete(m.seen, key)
		}
	}
}

var _ Cache = (*Memory)(nil)
