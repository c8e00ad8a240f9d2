package usecase

import (
	"math"
	"strings"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func testRiskParams() models.RiskParameters {
	return models.RiskParameters{
		MaxPositionSize:         0.02,
		MaxRiskPerTrade:         0.01,
		StopLossPercent:         0.02,
		TakeProfitPercent:       0.05,
		MaxDailyTrades:          10,
		MaxOpenPositions:        5,
		MaxCorrelation:          0.7,
		StopLossATRMultiplier:   2.0,
		TakeProfitATRMultiplier: 3.0,
	}
}

func windowWithATR(close, atr float64) *models.TimeSeriesWindow {
	return &models.TimeSeriesWindow{
		Ticker:    "AAPL",
		Timeframe: models.TF1h,
		Bars: []models.MarketObservation{{
			Ticker:     "AAPL",
			Timestamp:  time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC),
			Close:      close,
			Indicators: &models.TechnicalIndicators{ATR: atr},
		}},
	}
}

func TestSynthesizeBullish(t *testing.T) {
	s := NewSynthesizer(testRiskParams(), 0.70)
	pred := models.Prediction{
		Score: 0.8, Confidence: 0.8,
		Classification: models.Buy,
		Timeframe:      models.TF1h,
		Features:       models.FeatureSummary{RSI: 28, Trend: 0.002, Volatility: 0.01},
	}

	c, err := s.Synthesize(pred, windowWithATR(100, 1.5))
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if c == nil {
		t.Fatalf("expected a candidate")
	}
	if c.EntryPrice != 100 {
		t.Fatalf("entry = %v, want 100", c.EntryPrice)
	}
	if c.StopLoss != 97 {
		t.Fatalf("stop = %v, want 97 (entry - 2*ATR)", c.StopLoss)
	}
	if c.TakeProfit != 104.5 {
		t.Fatalf("target = %v, want 104.5 (entry + 3*ATR)", c.TakeProfit)
	}
	if math.Abs(c.RiskRewardRatio-1.5) > 1e-9 {
		t.Fatalf("risk/reward = %v, want 1.5", c.RiskRewardRatio)
	}
	if math.Abs(c.PositionSizePercent-0.016) > 1e-9 {
		t.Fatalf("position size = %v, want 0.016 (max * confidence)", c.PositionSizePercent)
	}
	if c.Direction() != "long" {
		t.Fatalf("direction = %q, want long", c.Direction())
	}
	if c.Reasoning == "" {
		t.Fatalf("expected reasoning text")
	}
}

func TestSynthesizeBearishInvertsLevels(t *testing.T) {
	s := NewSynthesizer(testRiskParams(), 0.70)
	pred := models.Prediction{
		Score: -0.9, Confidence: 0.9,
		Classification: models.StrongSell,
		Timeframe:      models.TF15m,
	}

	c, err := s.Synthesize(pred, windowWithATR(50, 1))
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if c.StopLoss != 52 {
		t.Fatalf("bearish stop = %v, want 52 (entry + 2*ATR)", c.StopLoss)
	}
	if c.TakeProfit != 47 {
		t.Fatalf("bearish target = %v, want 47 (entry - 3*ATR)", c.TakeProfit)
	}
	if c.Direction() != "short" {
		t.Fatalf("direction = %q, want short", c.Direction())
	}
}

func TestSynthesizeHoldAndFloor(t *testing.T) {
	s := NewSynthesizer(testRiskParams(), 0.70)

	c, err := s.Synthesize(models.Prediction{Classification: models.Hold}, windowWithATR(100, 1))
	if err != nil || c != nil {
		t.Fatalf("HOLD produced candidate %v err %v", c, err)
	}

	c, err = s.Synthesize(models.Prediction{
		Score: 0.66, Confidence: 0.66, Classification: models.Buy, Timeframe: models.TF1h,
	}, windowWithATR(100, 1))
	if err != nil || c != nil {
		t.Fatalf("below-floor confidence produced candidate %v err %v", c, err)
	}
}

func TestReasoningConditionalClauses(t *testing.T) {
	oversold := reasoning(models.Prediction{
		Classification: models.Buy, Confidence: 0.8, Timeframe: models.TF1h,
		Features: models.FeatureSummary{RSI: 28, Trend: 0.002, Volatility: 0.01},
	})
	for _, want := range []string{"BUY signal on 1h with confidence 80%", "RSI oversold at 28.0", "bullish trend confirmed"} {
		if !strings.Contains(oversold, want) {
			t.Fatalf("reasoning %q missing %q", oversold, want)
		}
	}
	if strings.Contains(oversold, "volatility") {
		t.Fatalf("reasoning %q warns on calm volatility", oversold)
	}

	overbought := reasoning(models.Prediction{
		Classification: models.Sell, Confidence: 0.75, Timeframe: models.TF15m,
		Features: models.FeatureSummary{RSI: 78, Trend: -0.003, Volatility: 0.03},
	})
	for _, want := range []string{"RSI overbought at 78.0", "bearish trend detected", "high volatility, caution advised"} {
		if !strings.Contains(overbought, want) {
			t.Fatalf("reasoning %q missing %q", overbought, want)
		}
	}

	// Neutral RSI and a flat trend leave only the headline.
	neutral := reasoning(models.Prediction{
		Classification: models.Buy, Confidence: 0.71, Timeframe: models.TF5m,
		Features: models.FeatureSummary{RSI: 50, Trend: 0.0005, Volatility: 0.01},
	})
	if strings.Contains(neutral, "RSI") || strings.Contains(neutral, "trend") {
		t.Fatalf("reasoning %q has clauses that should not apply", neutral)
	}
}

func TestSynthesizeFlatWindowFallback(t *testing.T) {
	s := NewSynthesizer(testRiskParams(), 0.70)
	w := windowWithATR(100, 0)
	w.Bars[0].Indicators = nil // no ATR, one bar: no rolling fallback either

	c, err := s.Synthesize(models.Prediction{
		Score: 0.8, Confidence: 0.8, Classification: models.Buy, Timeframe: models.TF1h,
	}, w)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	// Stop distance falls back to entry * stop_loss_percent.
	if math.Abs((c.EntryPrice-c.StopLoss)-2) > 1e-9 {
		t.Fatalf("fallback stop distance = %v, want 2", c.EntryPrice-c.StopLoss)
	}
}
