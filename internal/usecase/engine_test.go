package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/dedup"
	"TradePulse/internal/services/risk"
	"TradePulse/pkg/logger"
)

type fakeHistory struct {
	bars int
	err  error
}

func (f *fakeHistory) FetchWindow(_ context.Context, ticker, exchange string, tf models.Timeframe, _ time.Time) (*models.TimeSeriesWindow, error) {
	if f.err != nil {
		return nil, f.err
	}
	base := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	bars := make([]models.MarketObservation, f.bars)
	price := 100.0
	for i := range bars {
		bars[i] = models.MarketObservation{
			Ticker: ticker, Exchange: exchange,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price, High: price * 1.001, Low: price * 0.999,
			Close: price + 0.1, Volume: 1000 + float64(i%5)*10,
		}
		price += 0.1
	}
	return &models.TimeSeriesWindow{Ticker: ticker, Exchange: exchange, Timeframe: tf, Bars: bars}, nil
}

type fixedPredictor struct {
	pred   models.Prediction
	panics bool
}

func (f *fixedPredictor) Predict(_ context.Context, _ *models.FeatureMatrix, tf models.Timeframe, _ *models.MarketContext) (models.Prediction, error) {
	if f.panics {
		panic("predictor exploded")
	}
	p := f.pred
	p.Timeframe = tf
	return p, nil
}

type fakeStore struct {
	saved []*models.Signal
	err   error
}

func (f *fakeStore) Save(_ context.Context, s *models.Signal) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, s)
	return nil
}
func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

type fakePublisher struct {
	published []*models.Signal
	failures  int
	calls     int
}

func (f *fakePublisher) PublishSignal(_ context.Context, s *models.Signal) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, s)
	return nil
}
func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	rejected  []string
	errors    []string
	generated int
}

func (f *fakeMetrics) RecordSignalGenerated(string, models.Classification) { f.generated++ }
func (f *fakeMetrics) RecordSignalRejected(reason string)                  { f.rejected = append(f.rejected, reason) }
func (f *fakeMetrics) RecordStageLatency(string, float64)                  {}
func (f *fakeMetrics) RecordError(kind string)                             { f.errors = append(f.errors, kind) }
func (f *fakeMetrics) RecordLastScore(string, float64)                     {}
func (f *fakeMetrics) RecordCacheSize(int)                                 {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type engineDeps struct {
	history *fakeHistory
	pred    *fixedPredictor
	store   *fakeStore
	pub     *fakePublisher
	metrics *fakeMetrics
	params  models.RiskParameters
}

func newTestEngine(t *testing.T, d *engineDeps) *Engine {
	t.Helper()
	log := testLogger(t)
	return NewEngine(
		EngineConfig{
			ModelVersion:       "heuristic-v1",
			Timeframes:         []models.Timeframe{models.TF1m},
			Watchlist:          []WatchEntry{{Ticker: "AAPL"}},
			PublishMaxAttempts: 2,
			PublishBackoffMin:  time.Millisecond,
			PublishTimeout:     100 * time.Millisecond,
		},
		d.history,
		d.pred,
		NewSynthesizer(d.params, 0.70),
		risk.NewValidator(d.params, risk.NewLocalLedger(), log),
		dedup.NewMemory(time.Hour),
		d.store,
		d.pub,
		d.metrics,
		log,
	)
}

func defaultDeps() *engineDeps {
	return &engineDeps{
		history: &fakeHistory{bars: 60},
		pred: &fixedPredictor{pred: models.Prediction{
			Score: 0.8, Confidence: 0.8, Classification: models.Buy,
			Features: models.FeatureSummary{RSI: 28, Trend: 0.002, Volatility: 0.01},
		}},
		store:   &fakeStore{},
		pub:     &fakePublisher{},
		metrics: &fakeMetrics{},
		params:  testRiskParams(),
	}
}

func TestProcessTickerEndToEnd(t *testing.T) {
	d := defaultDeps()
	e := newTestEngine(t, d)

	if err := e.ProcessTicker(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("ProcessTicker failed: %v", err)
	}
	if len(d.store.saved) != 1 || len(d.pub.published) != 1 {
		t.Fatalf("saved=%d published=%d, want 1/1", len(d.store.saved), len(d.pub.published))
	}

	s := d.store.saved[0]
	if s.ID == "" {
		t.Fatalf("signal has no id")
	}
	if s.Status != models.StatusPending {
		t.Fatalf("status = %s, want PENDING", s.Status)
	}
	if s.Type != models.SignalBuy || s.Strength != models.StrengthStrong {
		t.Fatalf("type/strength = %s/%s, want BUY/STRONG", s.Type, s.Strength)
	}
	if !s.ValidUntil.Equal(s.CreatedAt.Add(4 * time.Hour)) {
		t.Fatalf("valid_until = %v, want created_at + 4h", s.ValidUntil)
	}
	if s.ModelVersion != "heuristic-v1" {
		t.Fatalf("model version = %q", s.ModelVersion)
	}
	if s.StopLoss >= s.EntryPrice || s.TakeProfit <= s.EntryPrice {
		t.Fatalf("bullish levels inverted: entry %v sl %v tp %v", s.EntryPrice, s.StopLoss, s.TakeProfit)
	}
	if d.metrics.generated != 1 {
		t.Fatalf("generated metric = %d, want 1", d.metrics.generated)
	}

	// Second pass inside the cooldown is suppressed by dedup.
	if err := e.ProcessTicker(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if len(d.pub.published) != 1 {
		t.Fatalf("dedup failed: published %d", len(d.pub.published))
	}
	found := false
	for _, r := range d.metrics.rejected {
		if r == "duplicate" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a duplicate rejection, got %v", d.metrics.rejected)
	}
}

func TestPublishFailureLeavesSignalPending(t *testing.T) {
	d := defaultDeps()
	d.pub.failures = 100
	e := newTestEngine(t, d)

	if err := e.ProcessTicker(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("publish failure must not fail the pass: %v", err)
	}
	if len(d.store.saved) != 1 {
		t.Fatalf("signal should be persisted before publish, saved=%d", len(d.store.saved))
	}
	if len(d.pub.published) != 0 {
		t.Fatalf("nothing should have been published")
	}

	// The cooldown was never recorded, so the next pass retries.
	if err := e.ProcessTicker(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("retry pass failed: %v", err)
	}
	if len(d.store.saved) != 2 {
		t.Fatalf("retry pass should persist again, saved=%d", len(d.store.saved))
	}
}

func TestPersistFailureAbortsPass(t *testing.T) {
	d := defaultDeps()
	d.store.err = errors.New("clickhouse down")
	e := newTestEngine(t, d)

	err := e.ProcessTicker(context.Background(), "AAPL", "")
	if err == nil {
		t.Fatalf("expected persistence error")
	}
	if d.pub.calls != 0 {
		t.Fatalf("publisher must not be called after persistence failure")
	}
}

func TestUnwatchedObservationIgnored(t *testing.T) {
	d := defaultDeps()
	e := newTestEngine(t, d)

	obs := &models.MarketObservation{Ticker: "TSLA", Timestamp: time.Now(), Close: 200}
	if err := e.HandleObservation(context.Background(), obs); err != nil {
		t.Fatalf("HandleObservation failed: %v", err)
	}
	if len(d.store.saved) != 0 {
		t.Fatalf("unwatched ticker triggered a pass")
	}
}

func TestWatchedObservationTriggersPass(t *testing.T) {
	d := defaultDeps()
	e := newTestEngine(t, d)

	obs := &models.MarketObservation{Ticker: "AAPL", Timestamp: time.Now(), Close: 100}
	if err := e.HandleObservation(context.Background(), obs); err != nil {
		t.Fatalf("HandleObservation failed: %v", err)
	}
	if len(d.pub.published) != 1 {
		t.Fatalf("watched observation published %d signals, want 1", len(d.pub.published))
	}
}

func TestPanicContained(t *testing.T) {
	d := defaultDeps()
	d.pred.panics = true
	e := newTestEngine(t, d)

	err := e.ProcessTicker(context.Background(), "AAPL", "")
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("expected contained panic, got %v", err)
	}
}

func TestHoldProducesNothing(t *testing.T) {
	d := defaultDeps()
	d.pred.pred = models.Prediction{Score: 0.1, Confidence: 0.1, Classification: models.Hold}
	e := newTestEngine(t, d)

	if err := e.ProcessTicker(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("ProcessTicker failed: %v", err)
	}
	if len(d.store.saved) != 0 || len(d.pub.published) != 0 {
		t.Fatalf("HOLD produced output: saved=%d published=%d", len(d.store.saved), len(d.pub.published))
	}
}

func TestInsufficientHistorySkipsQuietly(t *testing.T) {
	d := defaultDeps()
	d.history.bars = 10
	e := newTestEngine(t, d)

	if err := e.ProcessTicker(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("short history must not fail the pass: %v", err)
	}
	if len(d.store.saved) != 0 {
		t.Fatalf("short history produced a signal")
	}
}

func TestStatusSnapshot(t *testing.T) {
	d := defaultDeps()
	e := newTestEngine(t, d)

	if err := e.ProcessTicker(context.Background(), "AAPL", ""); err != nil {
		t.Fatalf("ProcessTicker failed: %v", err)
	}
	st := e.Status(context.Background())
	if st.ModelVersion != "heuristic-v1" {
		t.Fatalf("status model version = %q", st.ModelVersion)
	}
	if len(st.WatchedTickers) != 1 || st.WatchedTickers[0] != "AAPL" {
		t.Fatalf("status watchlist = %v", st.WatchedTickers)
	}
	if st.DedupCacheSize != 1 {
		t.Fatalf("status cache size = %d, want 1", st.DedupCacheSize)
	}
}
