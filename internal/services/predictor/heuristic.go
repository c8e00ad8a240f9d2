package predictor

import (
	"context"
	"fmt"
	"math"

	"TradePulse/internal/domain/models"
	domsvc "TradePulse/internal/domain/service"
)

// Scoring constants of the reference heuristic. Trend saturates at ±0.2% mean
// bar-to-bar change, RSI mean reversion kicks in outside the 30/70 band and
// saturates 10 points past it.
const (
	trendScale    = 0.002
	rsiOversold   = 30.0
	rsiOverbought = 70.0
	rsiBand       = 10.0
	termWeight    = 0.4
	tanhGain      = 2.0
	vixThreshold  = 30.0
	vixDamping    = 0.7
)

// Thresholds map a score onto a classification. Must be strictly ordered
// StrongSell < Sell < 0 < Buy < StrongBuy.
type Thresholds struct {
	StrongBuy  float64 `yaml:"strong_buy" default:"0.85"`
	Buy        float64 `yaml:"buy" default:"0.65"`
	Sell       float64 `yaml:"sell" default:"-0.65"`
	StrongSell float64 `yaml:"strong_sell" default:"-0.85"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{StrongBuy: 0.85, Buy: 0.65, Sell: -0.65, StrongSell: -0.85}
}

func (t Thresholds) Validate() error {
	if !(t.StrongSell < t.Sell && t.Sell < 0 && 0 < t.Buy && t.Buy < t.StrongBuy) {
		return fmt.Errorf("classification thresholds out of order: %+v", t)
	}
	return nil
}

// Classify maps a score in [-1, 1] onto a classification.
func (t Thresholds) Classify(score float64) models.Classification {
	switch {
	case score >= t.StrongBuy:
		return models.StrongBuy
	case score >= t.Buy:
		return models.Buy
	case score <= t.StrongSell:
		return models.StrongSell
	case score <= t.Sell:
		return models.Sell
	default:
		return models.Hold
	}
}

// Heuristic is the built-in rule-based predictor: a trend-following term plus
// an RSI mean-reversion term, each capped at ±0.4, compressed through tanh.
// A VIX above 30 damps the compressed score by 0.7. Pure and deterministic.
type Heuristic struct {
	thresholds Thresholds
}

func NewHeuristic(thresholds Thresholds) *Heuristic {
	return &Heuristic{thresholds: thresholds}
}

func (h *Heuristic) Predict(_ context.Context, features *models.FeatureMatrix, tf models.Timeframe, market *models.MarketContext) (models.Prediction, error) {
	if features == nil || len(features.Rows) == 0 {
		return models.Prediction{}, fmt.Errorf("empty feature matrix")
	}
	s := features.Summary

	trendTerm := termWeight * clamp(s.Trend/trendScale, -1, 1)

	var rsiTerm float64
	switch {
	case s.RSI < rsiOversold:
		rsiTerm = termWeight * clamp((rsiOversold-s.RSI)/rsiBand, 0, 1)
	case s.RSI > rsiOverbought:
		rsiTerm = -termWeight * clamp((s.RSI-rsiOverbought)/rsiBand, 0, 1)
	}

	score := math.Tanh(tanhGain * (trendTerm + rsiTerm))
	if market != nil && market.VIXLevel > vixThreshold {
		score *= vixDamping
	}

	return models.Prediction{
		Score:          score,
		Confidence:     math.Abs(score),
		Classification: h.thresholds.Classify(score),
		Timeframe:      tf,
		Features:       s,
	}, nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

var _ domsvc.Predictor = (*Heuristic)(nil)
