package dedup

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCooldown(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	clock := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	if m.IsDuplicate(ctx, "AAPL", "", "long") {
		t.Fatalf("fresh key reported duplicate")
	}
	m.Record(ctx, "AAPL", "", "long")
	if !m.IsDuplicate(ctx, "AAPL", "", "long") {
		t.Fatalf("recorded key not reported duplicate")
	}

	// Same ticker, opposite direction is an independent key.
	if m.IsDuplicate(ctx, "AAPL", "", "short") {
		t.Fatalf("opposite direction reported duplicate")
	}

	clock = clock.Add(time.Hour)
	if m.IsDuplicate(ctx, "AAPL", "", "long") {
		t.Fatalf("expired key still reported duplicate")
	}
	if m.Size(ctx) != 0 {
		t.Fatalf("expired key not evicted on lookup, size %d", m.Size(ctx))
	}
}

func TestMemoryAmortizedPurge(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	clock := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for i := 0; i < purgeEvery-1; i++ {
		m.Record(ctx, "T", string(rune('A'+i%26))+string(rune('A'+i/26)), "long")
	}
	clock = clock.Add(2 * time.Minute)
	m.Record(ctx, "LAST", "", "long")

	if got := m.Size(ctx); got != 1 {
		t.Fatalf("purge left %d entries, want 1", got)
	}
}

func TestMemoryExchangeScoping(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	m.Record(ctx, "BTC/USD", "binance", "long")
	if m.IsDuplicate(ctx, "BTC/USD", "kraken", "long") {
		t.Fatalf("different exchange reported duplicate")
	}
	if !m.IsDuplicate(ctx, "BTC/USD", "binance", "long") {
		t.Fatalf("same exchange not reported duplicate")
	}
}
