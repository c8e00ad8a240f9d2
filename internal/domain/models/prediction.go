package models

// Classification is the directional call produced by the prediction adapter.
type Classification string

const (
	StrongBuy  Classification = "STRONG_BUY"
	Buy        Classification = "BUY"
	Hold       Classification = "HOLD"
	Sell       Classification = "SELL"
	StrongSell Classification = "STRONG_SELL"
)

// IsBullish returns true for buy-side classifications.
func (c Classification) IsBullish() bool { return c == Buy || c == StrongBuy }

// IsBearish returns true for sell-side classifications.
func (c Classification) IsBearish() bool { return c == Sell || c == StrongSell }

// Strength maps a classification onto a signal strength bucket.
func (c Classification) Strength() Strength {
	switch c {
	case StrongBuy, StrongSell:
		return StrengthVeryStrong
	case Buy, Sell:
		return StrengthStrong
	default:
		return StrengthModerate
	}
}

// FeatureSummary carries the raw (un-normalized) values that supported a
// prediction, kept for reasoning text and downstream risk checks.
type FeatureSummary struct {
	RSI        float64 `json:"rsi"`
	Trend      float64 `json:"trend"`      // mean close pct-change over the recent bars
	Volatility float64 `json:"volatility"` // std dev of close pct-change over the recent bars
}

// FeatureMatrix is the model-facing input derived from one window: one row
// per bar, named columns, every value clipped to [-1, 1].
type FeatureMatrix struct {
	Columns []string
	Rows    [][]float64
	Summary FeatureSummary
}

// Latest returns the most recent value of a named column.
func (m *FeatureMatrix) Latest(col string) (float64, bool) {
	if m == nil || len(m.Rows) == 0 {
		return 0, false
	}
	for i, c := range m.Columns {
		if c == col {
			return m.Rows[len(m.Rows)-1][i], true
		}
	}
	return 0, false
}

// Prediction is the output of one (ticker, timeframe) scoring step.
// Confidence is always the absolute value of Score; both lie in [-1, 1].
type Prediction struct {
	Score          float64        `json:"score"`
	Confidence     float64        `json:"confidence"`
	Classification Classification `json:"classification"`
	Timeframe      Timeframe      `json:"timeframe"`
	Features       FeatureSummary `json:"features"`
}
