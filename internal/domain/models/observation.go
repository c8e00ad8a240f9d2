package models

import (
	"math"
	"time"
)

// TechnicalIndicators holds precomputed indicator values attached to a bar.
// Zero values mean the indicator was not supplied by the collector.
type TechnicalIndicators struct {
	RSI    float64 `json:"rsi,omitempty"`
	MACD   float64 `json:"macd,omitempty"`
	ATR    float64 `json:"atr,omitempty"`
	SMA50  float64 `json:"sma_50,omitempty"`
	SMA200 float64 `json:"sma_200,omitempty"`
	ADX    float64 `json:"adx,omitempty"`
}

// MarketContext carries market-wide conditions supplied alongside an
// observation event. Optional; nil means no context is available.
type MarketContext struct {
	VIXLevel            float64 `json:"vix_level,omitempty"`
	IndexTrend          string  `json:"index_trend,omitempty"` // "BULLISH", "BEARISH", "NEUTRAL"
	AdvanceDeclineRatio float64 `json:"advance_decline_ratio,omitempty"`
	FearGreedIndex      int     `json:"fear_greed_index,omitempty"`
	PutCallRatio        float64 `json:"put_call_ratio,omitempty"`
	NewsSentiment       float64 `json:"news_sentiment,omitempty"`
}

// MarketObservation is a single OHLCV bar for a ticker, immutable once
// received from the ingestion stream.
type MarketObservation struct {
	Ticker     string               `json:"ticker"`
	Exchange   string               `json:"exchange,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
	Open       float64              `json:"open"`
	High       float64              `json:"high"`
	Low        float64              `json:"low"`
	Close      float64              `json:"close"`
	Volume     float64              `json:"volume"`
	Indicators *TechnicalIndicators `json:"technical_indicators,omitempty"`
	Context    *MarketContext       `json:"market_context,omitempty"`
}

// TimeSeriesWindow is an ordered sequence of bars for one (ticker, timeframe)
// pair, timestamps ascending, no duplicates. Built on demand from the
// historical store and owned by a single pipeline pass.
type TimeSeriesWindow struct {
	Ticker    string
	Exchange  string
	Timeframe Timeframe
	Bars      []MarketObservation
}

func (w *TimeSeriesWindow) Len() int {
	if w == nil {
		return 0
	}
	return len(w.Bars)
}

// LastClose returns the most recent close price, or 0 for an empty window.
func (w *TimeSeriesWindow) LastClose() float64 {
	if w.Len() == 0 {
		return 0
	}
	return w.Bars[len(w.Bars)-1].Close
}

// Context returns the market context of the most recent bar carrying one.
func (w *TimeSeriesWindow) Context() *MarketContext {
	for i := w.Len() - 1; i >= 0; i-- {
		if w.Bars[i].Context != nil {
			return w.Bars[i].Context
		}
	}
	return nil
}

// ATR returns the latest supplied ATR value, falling back to the rolling
// standard deviation of closes over the given period when no true ATR is
// available.
func (w *TimeSeriesWindow) ATR(period int) float64 {
	n := w.Len()
	if n == 0 {
		return 0
	}
	if ind := w.Bars[n-1].Indicators; ind != nil && ind.ATR > 0 {
		return ind.ATR
	}
	if period < 2 || n < period {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for i := n - period; i < n; i++ {
		c := w.Bars[i].Close
		sum += c
		sum2 += c * c
	}
	p := float64(period)
	mean := sum / p
	variance := (sum2 - p*mean*mean) / (p - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
