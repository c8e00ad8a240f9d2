package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	"TradePulse/pkg/cache"
)

// CachedHistoryStore memoizes bar windows in front of a HistoryStore. A window
// only changes when the next bar closes, so entries live for a fraction of the
// bar interval; concurrent timeframes of the same ticker each get their own key.
type CachedHistoryStore struct {
	inner domrepo.HistoryStore
	cache cache.Service
}

func NewCachedHistoryStore(inner domrepo.HistoryStore, c cache.Service) *CachedHistoryStore {
	return &CachedHistoryStore{inner: inner, cache: c}
}

func (s *CachedHistoryStore) FetchWindow(ctx context.Context, ticker, exchange string, tf models.Timeframe, since time.Time) (*models.TimeSeriesWindow, error) {
	key := windowKey(ticker, exchange, tf)

	var cached models.TimeSeriesWindow
	if err := s.cache.Get(ctx, key, &cached); err == nil && cached.Len() > 0 {
		return &cached, nil
	}

	w, err := s.inner.FetchWindow(ctx, ticker, exchange, tf, since)
	if err != nil {
		return nil, err
	}

	// A failed cache write only costs the next read a query.
	_ = s.cache.Set(ctx, key, w, windowTTL(tf))
	return w, nil
}

func windowKey(ticker, exchange string, tf models.Timeframe) string {
	return cache.GenerateKeyWithParams("window", ticker, exchange, tf)
}

// windowTTL keeps entries well under the bar interval so a freshly closed bar
// is picked up quickly.
func windowTTL(tf models.Timeframe) time.Duration {
	ttl := tf.Duration() / 4
	if ttl < 5*time.Second {
		ttl = 5 * time.Second
	}
	if ttl > time.Minute {
		ttl = time.Minute
	}
	return ttl
}

var _ domrepo.HistoryStore = (*CachedHistoryStore)(nil)
