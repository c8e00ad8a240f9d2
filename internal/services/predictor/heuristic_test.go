package predictor

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func matrixWith(summary models.FeatureSummary) *models.FeatureMatrix {
	return &models.FeatureMatrix{
		Columns: []string{"close_pct", "rsi"},
		Rows:    [][]float64{{0, summary.RSI / 3}},
		Summary: summary,
	}
}

func TestHeuristicBullish(t *testing.T) {
	h := NewHeuristic(DefaultThresholds())
	p, err := h.Predict(context.Background(), matrixWith(models.FeatureSummary{RSI: 25, Trend: 0.002}), models.TF1h, nil)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if p.Score <= 0 {
		t.Fatalf("oversold uptrend scored %v, want > 0", p.Score)
	}
	if p.Classification != models.Buy {
		t.Fatalf("classification = %s, want BUY (score %v)", p.Classification, p.Score)
	}
	if p.Confidence < 0.70 {
		t.Fatalf("confidence = %v, want >= 0.70", p.Confidence)
	}
	if p.Confidence != math.Abs(p.Score) {
		t.Fatalf("confidence %v != |score| %v", p.Confidence, p.Score)
	}
}

func TestHeuristicBearish(t *testing.T) {
	h := NewHeuristic(DefaultThresholds())
	p, err := h.Predict(context.Background(), matrixWith(models.FeatureSummary{RSI: 75, Trend: -0.002}), models.TF1h, nil)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if p.Classification != models.Sell {
		t.Fatalf("classification = %s, want SELL (score %v)", p.Classification, p.Score)
	}
}

func TestHeuristicNeutralHolds(t *testing.T) {
	h := NewHeuristic(DefaultThresholds())
	p, err := h.Predict(context.Background(), matrixWith(models.FeatureSummary{RSI: 50, Trend: 0}), models.TF1h, nil)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if p.Score != 0 || p.Classification != models.Hold {
		t.Fatalf("neutral input gave score %v classification %s, want 0 / HOLD", p.Score, p.Classification)
	}
}

func TestHeuristicFullAgreementIsStrong(t *testing.T) {
	h := NewHeuristic(DefaultThresholds())
	p, err := h.Predict(context.Background(), matrixWith(models.FeatureSummary{RSI: 15, Trend: 0.01}), models.TF1h, nil)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if p.Classification != models.StrongBuy {
		t.Fatalf("saturated bullish input classified %s (score %v), want STRONG_BUY", p.Classification, p.Score)
	}
}

func TestHeuristicVIXDamping(t *testing.T) {
	h := NewHeuristic(DefaultThresholds())
	summary := models.FeatureSummary{RSI: 25, Trend: 0.002}

	calm, err := h.Predict(context.Background(), matrixWith(summary), models.TF1h, &models.MarketContext{VIXLevel: 18})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	stressed, err := h.Predict(context.Background(), matrixWith(summary), models.TF1h, &models.MarketContext{VIXLevel: 35})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(stressed.Score-calm.Score*0.7) > 1e-12 {
		t.Fatalf("damped score %v, want exactly %v", stressed.Score, calm.Score*0.7)
	}
	if stressed.Classification != models.Hold {
		t.Fatalf("damped classification = %s, want HOLD", stressed.Classification)
	}
}

func TestHeuristicScoreBounds(t *testing.T) {
	h := NewHeuristic(DefaultThresholds())
	for _, s := range []models.FeatureSummary{
		{RSI: 0, Trend: 1},
		{RSI: 100, Trend: -1},
		{RSI: 5, Trend: -0.5},
	} {
		p, err := h.Predict(context.Background(), matrixWith(s), models.TF5m, nil)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		if p.Score < -1 || p.Score > 1 {
			t.Fatalf("score %v outside [-1, 1] for %+v", p.Score, s)
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}
	bad := Thresholds{StrongBuy: 0.5, Buy: 0.8, Sell: -0.65, StrongSell: -0.85}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unordered thresholds")
	}
}

type flakyPredictor struct {
	failures int
	calls    int
}

func (f *flakyPredictor) Predict(_ context.Context, _ *models.FeatureMatrix, tf models.Timeframe, _ *models.MarketContext) (models.Prediction, error) {
	f.calls++
	if f.calls <= f.failures {
		return models.Prediction{}, errors.New("transient")
	}
	return models.Prediction{Score: 0.9, Confidence: 0.9, Classification: models.StrongBuy, Timeframe: tf}, nil
}

func TestRetryingRecovers(t *testing.T) {
	inner := &flakyPredictor{failures: 2}
	r := NewRetrying(inner, RetryConfig{MaxAttempts: 3, BackoffMin: time.Millisecond, BackoffMax: 2 * time.Millisecond}, nil)
	p, err := r.Predict(context.Background(), matrixWith(models.FeatureSummary{}), models.TF1h, nil)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if p.Classification != models.StrongBuy {
		t.Fatalf("unexpected prediction %+v", p)
	}
	if inner.calls != 3 {
		t.Fatalf("inner called %d times, want 3", inner.calls)
	}
}

func TestRetryingExhausts(t *testing.T) {
	inner := &flakyPredictor{failures: 10}
	r := NewRetrying(inner, RetryConfig{MaxAttempts: 2, BackoffMin: time.Millisecond, BackoffMax: 2 * time.Millisecond}, nil)
	if _, err := r.Predict(context.Background(), matrixWith(models.FeatureSummary{}), models.TF1h, nil); err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if inner.calls != 2 {
		t.Fatalf("inner called %d times, want 2", inner.calls)
	}
}
