package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/services/dedup"
	"TradePulse/internal/services/features"
	"TradePulse/internal/services/ratelimit"
	"TradePulse/internal/services/risk"
	"TradePulse/pkg/logger"
)

// Pipeline stages, reported in latency metrics and the status endpoint.
const (
	StageIdle         = "IDLE"
	StageCollecting   = "COLLECTING"
	StageScoring      = "SCORING"
	StageSynthesizing = "SYNTHESIZING"
	StageDedupCheck   = "DEDUP_CHECK"
	StageValidating   = "VALIDATING"
	StagePersisting   = "PERSISTING"
	StagePublishing   = "PUBLISHING"
)

// WatchEntry is one (ticker, exchange) pair the engine scans and accepts
// events for.
type WatchEntry struct {
	Ticker   string `yaml:"ticker" validate:"required"`
	Exchange string `yaml:"exchange"`
}

// EngineConfig tunes the orchestrator. Zero fields fall back to defaults in
// NewEngine.
type EngineConfig struct {
	ModelVersion       string
	BatchInterval      time.Duration
	ScanRate           float64 // pipeline passes per second during a batch scan
	Timeframes         []models.Timeframe
	Watchlist          []WatchEntry
	SignalTTL          time.Duration
	PublishMaxAttempts int
	PublishBackoffMin  time.Duration
	PublishTimeout     time.Duration
}

// Engine drives the full pass for one ticker: collect windows, score, build
// candidates, aggregate, dedup, validate, persist, publish. Passes for the
// same (ticker, exchange) are single-flight; everything else may run
// concurrently.
type Engine struct {
	cfg       EngineConfig
	history   repository.HistoryStore
	predictor domsvc.Predictor
	synth     *Synthesizer
	validator *risk.Validator
	dedup     dedup.Cache
	store     repository.SignalStore
	pub       repository.SignalPublisher
	metrics   repository.Metrics
	limiter   *ratelimit.Limiter
	log       *logger.Logger

	mu       sync.Mutex
	inflight map[string]*sync.Mutex
	watched  map[string]bool

	lastPassMu sync.RWMutex
	lastPass   time.Time
}

func NewEngine(
	cfg EngineConfig,
	history repository.HistoryStore,
	predictor domsvc.Predictor,
	synth *Synthesizer,
	validator *risk.Validator,
	cache dedup.Cache,
	store repository.SignalStore,
	pub repository.SignalPublisher,
	metrics repository.Metrics,
	log *logger.Logger,
) *Engine {
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 60 * time.Second
	}
	if cfg.ScanRate <= 0 {
		cfg.ScanRate = 5
	}
	if len(cfg.Timeframes) == 0 {
		cfg.Timeframes = models.DefaultTimeframes()
	}
	if cfg.SignalTTL <= 0 {
		cfg.SignalTTL = 4 * time.Hour
	}
	if cfg.PublishMaxAttempts <= 0 {
		cfg.PublishMaxAttempts = 3
	}
	if cfg.PublishBackoffMin <= 0 {
		cfg.PublishBackoffMin = 500 * time.Millisecond
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 10 * time.Second
	}

	e := &Engine{
		cfg:       cfg,
		history:   history,
		predictor: predictor,
		synth:     synth,
		validator: validator,
		dedup:     cache,
		store:     store,
		pub:       pub,
		metrics:   metrics,
		limiter:   ratelimit.New(),
		log:       log,
		inflight:  make(map[string]*sync.Mutex),
		watched:   make(map[string]bool),
	}
	for _, w := range cfg.Watchlist {
		e.watched[passKey(w.Ticker, w.Exchange)] = true
	}
	return e
}

func passKey(ticker, exchange string) string {
	return ticker + "|" + exchange
}

// Watched reports whether the engine accepts events for the pair.
func (e *Engine) Watched(ticker, exchange string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watched[passKey(ticker, exchange)]
}

// Run drives the batch path: one scan immediately, then one per interval,
// until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine started",
		logger.Int("watchlist", len(e.cfg.Watchlist)),
		logger.Duration("batch_interval", e.cfg.BatchInterval))

	e.scan(ctx)
	ticker := time.NewTicker(e.cfg.BatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.scan(ctx)
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return ctx.Err()
		}
	}
}

func (e *Engine) scan(ctx context.Context) {
	for _, w := range e.cfg.Watchlist {
		if err := e.limiter.Wait(ctx, "batch_scan", e.cfg.ScanRate, e.cfg.ScanRate); err != nil {
			return
		}
		if err := e.ProcessTicker(ctx, w.Ticker, w.Exchange); err != nil {
			e.log.Error("pipeline pass failed",
				logger.String("ticker", w.Ticker),
				logger.Error(err))
		}
	}
	e.lastPassMu.Lock()
	e.lastPass = time.Now()
	e.lastPassMu.Unlock()
}

// HandleObservation is the event path: a fresh bar for a watched ticker
// triggers a full pass. Unwatched tickers are dropped silently.
func (e *Engine) HandleObservation(ctx context.Context, obs *models.MarketObservation) error {
	if !e.Watched(obs.Ticker, obs.Exchange) {
		return nil
	}
	return e.ProcessTicker(ctx, obs.Ticker, obs.Exchange)
}

// ProcessTicker runs one full pass. A pass already in flight for the same
// pair makes this call a no-op. Panics inside a pass are contained here.
func (e *Engine) ProcessTicker(ctx context.Context, ticker, exchange string) (err error) {
	lock := e.passLock(ticker, exchange)
	if !lock.TryLock() {
		return nil
	}
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.metrics.RecordError("pass_panic")
			err = fmt.Errorf("pipeline pass panicked: %v", r)
		}
	}()

	candidates, err := e.score(ctx, ticker, exchange)
	if err != nil {
		return err
	}
	winners := Aggregate(candidates)
	for _, c := range winners {
		if err := e.emit(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) passLock(ticker, exchange string) *sync.Mutex {
	key := passKey(ticker, exchange)
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.inflight[key]
	if !ok {
		lock = &sync.Mutex{}
		e.inflight[key] = lock
	}
	return lock
}

// score collects windows and produces one candidate per scorable timeframe.
// A timeframe that cannot be collected or scored is skipped, not fatal.
func (e *Engine) score(ctx context.Context, ticker, exchange string) ([]*models.CandidateSignal, error) {
	var candidates []*models.CandidateSignal
	for _, tf := range e.cfg.Timeframes {
		collectStart := time.Now()
		window, err := e.history.FetchWindow(ctx, ticker, exchange, tf, time.Now().Add(-tf.Lookback()))
		e.metrics.RecordStageLatency(StageCollecting, time.Since(collectStart).Seconds())
		if err != nil {
			e.metrics.RecordError("collect")
			e.log.Warn("window collection failed",
				logger.String("ticker", ticker),
				logger.String("timeframe", string(tf)),
				logger.Error(err))
			continue
		}

		scoreStart := time.Now()
		matrix, err := features.Normalize(window)
		if err != nil {
			if !errors.Is(err, features.ErrInsufficientData) {
				e.metrics.RecordError("normalize")
			}
			e.log.Debug("timeframe skipped",
				logger.String("ticker", ticker),
				logger.String("timeframe", string(tf)),
				logger.Error(err))
			continue
		}
		pred, err := e.predictor.Predict(ctx, matrix, tf, window.Context())
		e.metrics.RecordStageLatency(StageScoring, time.Since(scoreStart).Seconds())
		if err != nil {
			e.metrics.RecordError("predict")
			e.log.Warn("prediction failed",
				logger.String("ticker", ticker),
				logger.String("timeframe", string(tf)),
				logger.Error(err))
			continue
		}
		e.metrics.RecordLastScore(ticker, pred.Score)

		synthStart := time.Now()
		candidate, err := e.synth.Synthesize(pred, window)
		e.metrics.RecordStageLatency(StageSynthesizing, time.Since(synthStart).Seconds())
		if err != nil {
			e.metrics.RecordError("synthesize")
			continue
		}
		if candidate != nil {
			candidates = append(candidates, candidate)
		}
	}
	return candidates, nil
}

// emit takes one aggregated candidate through dedup, validation, persistence
// and publication. Persistence failure aborts the pass; publication failure
// leaves the signal persisted as PENDING and unrecorded in the dedup cache so
// a later pass can retry.
func (e *Engine) emit(ctx context.Context, c *models.CandidateSignal) error {
	dedupStart := time.Now()
	duplicate := e.dedup.IsDuplicate(ctx, c.Ticker, c.Exchange, c.Direction())
	e.metrics.RecordStageLatency(StageDedupCheck, time.Since(dedupStart).Seconds())
	if duplicate {
		e.metrics.RecordSignalRejected("duplicate")
		e.log.Debug("duplicate signal suppressed",
			logger.String("ticker", c.Ticker),
			logger.String("direction", c.Direction()))
		return nil
	}

	validateStart := time.Now()
	result, err := e.validator.Validate(ctx, c)
	e.metrics.RecordStageLatency(StageValidating, time.Since(validateStart).Seconds())
	if err != nil {
		e.metrics.RecordError("validate")
		return fmt.Errorf("risk validation: %w", err)
	}
	if !result.IsValid {
		e.metrics.RecordSignalRejected(risk.RejectionReason(result))
		return nil
	}

	signal := e.buildSignal(c, result)

	persistStart := time.Now()
	if err := e.store.Save(ctx, signal); err != nil {
		e.metrics.RecordStageLatency(StagePersisting, time.Since(persistStart).Seconds())
		e.metrics.RecordError("persist")
		return fmt.Errorf("persist signal %s: %w", signal.ID, err)
	}
	e.metrics.RecordStageLatency(StagePersisting, time.Since(persistStart).Seconds())

	publishStart := time.Now()
	err = e.publishWithRetry(ctx, signal)
	e.metrics.RecordStageLatency(StagePublishing, time.Since(publishStart).Seconds())
	if err != nil {
		e.metrics.RecordError("publish")
		e.log.Error("signal publication failed, left pending",
			logger.String("signal_id", signal.ID),
			logger.String("ticker", signal.Ticker),
			logger.Error(err))
		return nil
	}

	e.dedup.Record(ctx, c.Ticker, c.Exchange, c.Direction())
	e.metrics.RecordSignalGenerated(signal.Ticker, signal.Classification)
	e.metrics.RecordCacheSize(e.dedup.Size(ctx))
	e.log.Info("signal published",
		logger.String("signal_id", signal.ID),
		logger.String("ticker", signal.Ticker),
		logger.String("type", string(signal.Type)),
		logger.String("strength", string(signal.Strength)),
		logger.Float64("confidence", signal.Confidence))
	return nil
}

// buildSignal stamps identity and lifecycle metadata and applies the
// validator's advisory adjustments to the durable signal.
func (e *Engine) buildSignal(c *models.CandidateSignal, result *models.ValidationResult) *models.Signal {
	now := time.Now()
	s := &models.Signal{
		ID:                  uuid.NewString(),
		CreatedAt:           now,
		Ticker:              c.Ticker,
		Exchange:            c.Exchange,
		Type:                c.Type(),
		Strength:            c.Classification.Strength(),
		Classification:      c.Classification,
		Confidence:          c.Confidence,
		EntryPrice:          c.EntryPrice,
		StopLoss:            c.StopLoss,
		TakeProfit:          c.TakeProfit,
		PositionSizePercent: c.PositionSizePercent,
		RiskRewardRatio:     c.RiskRewardRatio,
		RiskLevel:           risk.GradeRisk(c),
		Status:              models.StatusPending,
		ValidUntil:          now.Add(e.cfg.SignalTTL),
		Timeframe:           c.Timeframe,
		Reasoning:           c.Reasoning,
		TechnicalSummary:    c.Indicators,
		ModelVersion:        e.cfg.ModelVersion,
	}
	if result.AdjustedPositionSize != nil {
		s.PositionSizePercent = *result.AdjustedPositionSize
	}
	if result.AdjustedStopLoss != nil {
		s.StopLoss = *result.AdjustedStopLoss
	}
	if result.AdjustedTakeProfit != nil {
		s.TakeProfit = *result.AdjustedTakeProfit
	}
	if len(result.Recommendations) > 0 {
		s.Reasoning = s.Reasoning + "; " + strings.Join(result.Recommendations, "; ")
	}
	return s
}

func (e *Engine) publishWithRetry(ctx context.Context, signal *models.Signal) error {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.PublishMaxAttempts; attempt++ {
		pubCtx, cancel := context.WithTimeout(ctx, e.cfg.PublishTimeout)
		lastErr = e.pub.PublishSignal(pubCtx, signal)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt == e.cfg.PublishMaxAttempts {
			break
		}
		select {
		case <-time.After(e.cfg.PublishBackoffMin << (attempt - 1)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("publish after %d attempts: %w", e.cfg.PublishMaxAttempts, lastErr)
}

// EngineStatus is the snapshot served by the status endpoint.
type EngineStatus struct {
	ModelVersion   string    `json:"model_version"`
	WatchedTickers []string  `json:"watched_tickers"`
	Timeframes     []string  `json:"timeframes"`
	DedupCacheSize int       `json:"dedup_cache_size"`
	LastBatchScan  time.Time `json:"last_batch_scan"`
}

func (e *Engine) Status(ctx context.Context) EngineStatus {
	tickers := make([]string, 0, len(e.cfg.Watchlist))
	for _, w := range e.cfg.Watchlist {
		tickers = append(tickers, w.Ticker)
	}
	tfs := make([]string, 0, len(e.cfg.Timeframes))
	for _, tf := range e.cfg.Timeframes {
		tfs = append(tfs, string(tf))
	}
	e.lastPassMu.RLock()
	last := e.lastPass
	e.lastPassMu.RUnlock()
	return EngineStatus{
		ModelVersion:   e.cfg.ModelVersion,
		WatchedTickers: tickers,
		Timeframes:     tfs,
		DedupCacheSize: e.dedup.Size(ctx),
		LastBatchScan:  last,
	}
}
