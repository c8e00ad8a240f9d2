package repository

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/cache"
)

type countingHistoryStore struct {
	calls int
}

func (s *countingHistoryStore) FetchWindow(_ context.Context, ticker, exchange string, tf models.Timeframe, _ time.Time) (*models.TimeSeriesWindow, error) {
	s.calls++
	bars := make([]models.MarketObservation, 3)
	for i := range bars {
		bars[i] = models.MarketObservation{
			Ticker:    ticker,
			Exchange:  exchange,
			Timestamp: time.Date(2026, 8, 1, 10, i, 0, 0, time.UTC),
			Open:      100, High: 101, Low: 99, Close: 100.5,
			Volume: 1000,
		}
	}
	return &models.TimeSeriesWindow{Ticker: ticker, Exchange: exchange, Timeframe: tf, Bars: bars}, nil
}

func TestCachedHistoryStoreServesRepeatsFromCache(t *testing.T) {
	inner := &countingHistoryStore{}
	store := NewCachedHistoryStore(inner, cache.NewMemoryCache())
	ctx := context.Background()
	since := time.Now().Add(-4 * time.Hour)

	first, err := store.FetchWindow(ctx, "AAPL", "NASDAQ", models.TF5m, since)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := store.FetchWindow(ctx, "AAPL", "NASDAQ", models.TF5m, since)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}
	if second.Len() != first.Len() || second.Ticker != "AAPL" || second.Timeframe != models.TF5m {
		t.Fatalf("cached window mismatch: %+v", second)
	}
}

func TestCachedHistoryStoreKeysPerTimeframe(t *testing.T) {
	inner := &countingHistoryStore{}
	store := NewCachedHistoryStore(inner, cache.NewMemoryCache())
	ctx := context.Background()
	since := time.Now().Add(-4 * time.Hour)

	if _, err := store.FetchWindow(ctx, "AAPL", "NASDAQ", models.TF5m, since); err != nil {
		t.Fatalf("5m fetch: %v", err)
	}
	if _, err := store.FetchWindow(ctx, "AAPL", "NASDAQ", models.TF1h, since); err != nil {
		t.Fatalf("1h fetch: %v", err)
	}

	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want one per timeframe", inner.calls)
	}
}

func TestWindowTTLBounds(t *testing.T) {
	if got := windowTTL(models.TF1m); got != 15*time.Second {
		t.Fatalf("ttl 1m = %v", got)
	}
	if got := windowTTL(models.TF1d); got != time.Minute {
		t.Fatalf("ttl 1d = %v, want capped at 1m", got)
	}
}
