package predictor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/pkg/logger"
)

// RetryConfig bounds the retry decorator.
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" default:"3"`
	BackoffMin     time.Duration `yaml:"backoff_min" default:"100ms"`
	BackoffMax     time.Duration `yaml:"backoff_max" default:"2s"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" default:"5s"`
}

// Retrying decorates a Predictor with bounded retries and exponential backoff
// with jitter. Used for the remote mode where transient failures are expected;
// the heuristic never needs it.
type Retrying struct {
	inner domsvc.Predictor
	cfg   RetryConfig
	log   *logger.Logger
}

func NewRetrying(inner domsvc.Predictor, cfg RetryConfig, log *logger.Logger) *Retrying {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = 100 * time.Millisecond
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		cfg.BackoffMax = cfg.BackoffMin
	}
	return &Retrying{inner: inner, cfg: cfg, log: log}
}

func (r *Retrying) Predict(ctx context.Context, features *models.FeatureMatrix, tf models.Timeframe, market *models.MarketContext) (models.Prediction, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if r.cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.cfg.AttemptTimeout)
		}
		pred, err := r.inner.Predict(attemptCtx, features, tf, market)
		cancel()
		if err == nil {
			return pred, nil
		}
		lastErr = err
		if attempt == r.cfg.MaxAttempts {
			break
		}
		delay := backoffWithJitter(attempt, r.cfg.BackoffMin, r.cfg.BackoffMax)
		if r.log != nil {
			r.log.Warn("prediction attempt failed, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", delay),
				logger.Error(err))
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return models.Prediction{}, ctx.Err()
		}
	}
	return models.Prediction{}, fmt.Errorf("prediction failed after %d attempts: %w", r.cfg.MaxAttempts, lastErr)
}

func backoffWithJitter(attempt int, min, max time.Duration) time.Duration {
	backoff := min << (attempt - 1)
	if backoff > max || backoff <= 0 {
		backoff = max
	}
	jitter := time.Duration(rand.Int63n(int64(backoff)/2 + 1))
	return backoff/2 + jitter
}

var _ domsvc.Predictor = (*Retrying)(nil)
