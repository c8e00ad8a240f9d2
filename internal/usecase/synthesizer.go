package usecase

import (
	"fmt"
	"strings"
	"time"

	"TradePulse/internal/domain/models"
)

// atrPeriod is the lookback for the volatility fallback when no true ATR is
// supplied with the bars.
const atrPeriod = 14

// Synthesizer turns predictions into tradeable candidates: entry at the last
// close, stop and target placed by ATR multiples, sized by conviction.
type Synthesizer struct {
	params          models.RiskParameters
	confidenceFloor float64
}

func NewSynthesizer(params models.RiskParameters, confidenceFloor float64) *Synthesizer {
	return &Synthesizer{params: params, confidenceFloor: confidenceFloor}
}

// Synthesize builds a candidate from one prediction over its window. Returns
// nil for HOLD or when the prediction's confidence is below the floor.
func (s *Synthesizer) Synthesize(pred models.Prediction, w *models.TimeSeriesWindow) (*models.CandidateSignal, error) {
	if pred.Classification == models.Hold {
		return nil, nil
	}
	if pred.Confidence < s.confidenceFloor {
		return nil, nil
	}
	entry := w.LastClose()
	if entry <= 0 {
		return nil, fmt.Errorf("window for %s has no usable close price", w.Ticker)
	}

	atr := w.ATR(atrPeriod)
	if atr <= 0 {
		// A flat window still needs a stop distance somewhere.
		atr = entry * s.params.StopLossPercent / s.params.StopLossATRMultiplier
	}

	var stopLoss, takeProfit float64
	if pred.Classification.IsBearish() {
		stopLoss = entry + s.params.StopLossATRMultiplier*atr
		takeProfit = entry - s.params.TakeProfitATRMultiplier*atr
	} else {
		stopLoss = entry - s.params.StopLossATRMultiplier*atr
		takeProfit = entry + s.params.TakeProfitATRMultiplier*atr
	}

	riskReward := 0.0
	if d := abs(entry - stopLoss); d > 0 {
		riskReward = abs(takeProfit-entry) / d
	}

	return &models.CandidateSignal{
		Ticker:              w.Ticker,
		Exchange:            w.Exchange,
		Classification:      pred.Classification,
		Score:               pred.Score,
		Confidence:          pred.Confidence,
		EntryPrice:          entry,
		StopLoss:            stopLoss,
		TakeProfit:          takeProfit,
		RiskRewardRatio:     riskReward,
		PositionSizePercent: s.params.MaxPositionSize * pred.Confidence,
		ATR:                 atr,
		Timeframe:           pred.Timeframe,
		Reasoning:           reasoning(pred),
		Indicators:          pred.Features,
		CreatedAt:           time.Now(),
	}, nil
}

// Clause thresholds for the rationale text: trend direction needs ±0.1% mean
// bar change, the volatility warning fires above 2%.
const (
	reasoningTrendMin = 0.001
	reasoningVolWarn  = 0.02
)

// reasoning builds the rationale: the signal headline, then the RSI regime,
// trend direction and volatility warning, each clause only when it applies.
func reasoning(pred models.Prediction) string {
	parts := []string{fmt.Sprintf("%s signal on %s with confidence %.0f%%",
		pred.Classification, pred.Timeframe, pred.Confidence*100)}

	switch rsi := pred.Features.RSI; {
	case rsi > 0 && rsi < 30:
		parts = append(parts, fmt.Sprintf("RSI oversold at %.1f", rsi))
	case rsi > 70:
		parts = append(parts, fmt.Sprintf("RSI overbought at %.1f", rsi))
	}

	switch trend := pred.Features.Trend; {
	case trend > reasoningTrendMin:
		parts = append(parts, "bullish trend confirmed")
	case trend < -reasoningTrendMin:
		parts = append(parts, "bearish trend detected")
	}

	if pred.Features.Volatility > reasoningVolWarn {
		parts = append(parts, "high volatility, caution advised")
	}

	return strings.Join(parts, "; ")
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
