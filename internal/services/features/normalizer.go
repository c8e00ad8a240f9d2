package features

import (
	"errors"
	"math"

	"TradePulse/internal/domain/models"
)

// MinWindow is the minimum number of bars required to produce features.
const MinWindow = 50

// rsiPeriod is the lookback for the RSI fallback computation.
const rsiPeriod = 14

// summaryBars is how many recent bars feed the raw feature summary.
const summaryBars = 20

// ErrInsufficientData is returned when a window holds fewer than MinWindow bars.
var ErrInsufficientData = errors.New("insufficient data for feature extraction")

// Column names of the feature matrix. Optional indicator columns are appended
// only when the window carries values for them.
const (
	ColOpenPct  = "open_pct"
	ColHighPct  = "high_pct"
	ColLowPct   = "low_pct"
	ColClosePct = "close_pct"
	ColVolumeZ  = "volume_z"
	ColRSI      = "rsi"
	ColMACD     = "macd"
	ColSMA50    = "sma_50"
	ColSMA200   = "sma_200"
	ColATR      = "atr"
	ColADX      = "adx"
)

// Normalize turns a bar window into a model-ready feature matrix. OHLC series
// become percent changes (first row 0), volume becomes a z-score over the
// window, RSI is taken from supplied indicators with a rolling-mean fallback,
// and every cell is clipped to [-3, 3] and divided by 3. The raw summary
// (unclipped RSI, trend, volatility over the recent bars) rides along for
// reasoning and risk checks.
func Normalize(w *models.TimeSeriesWindow) (*models.FeatureMatrix, error) {
	if w.Len() < MinWindow {
		return nil, ErrInsufficientData
	}
	n := w.Len()

	openPct := pctChange(w.Bars, func(b models.MarketObservation) float64 { return b.Open })
	highPct := pctChange(w.Bars, func(b models.MarketObservation) float64 { return b.High })
	lowPct := pctChange(w.Bars, func(b models.MarketObservation) float64 { return b.Low })
	closePct := pctChange(w.Bars, func(b models.MarketObservation) float64 { return b.Close })
	volumeZ := zScore(w.Bars)
	rsi := rsiSeries(w.Bars)

	cols := []string{ColOpenPct, ColHighPct, ColLowPct, ColClosePct, ColVolumeZ, ColRSI}
	series := [][]float64{openPct, highPct, lowPct, closePct, volumeZ, rsi}

	for _, opt := range []struct {
		name string
		get  func(*models.TechnicalIndicators) float64
	}{
		{ColMACD, func(t *models.TechnicalIndicators) float64 { return t.MACD }},
		{ColSMA50, func(t *models.TechnicalIndicators) float64 { return t.SMA50 }},
		{ColSMA200, func(t *models.TechnicalIndicators) float64 { return t.SMA200 }},
		{ColATR, func(t *models.TechnicalIndicators) float64 { return t.ATR }},
		{ColADX, func(t *models.TechnicalIndicators) float64 { return t.ADX }},
	} {
		if s, ok := indicatorSeries(w.Bars, opt.get); ok {
			cols = append(cols, opt.name)
			series = append(series, s)
		}
	}

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(series))
		for j, s := range series {
			row[j] = clip(s[i], -3, 3) / 3
		}
		rows[i] = row
	}

	trend, vol := meanStd(tail(closePct, summaryBars))
	return &models.FeatureMatrix{
		Columns: cols,
		Rows:    rows,
		Summary: models.FeatureSummary{
			RSI:        rsi[n-1],
			Trend:      trend,
			Volatility: vol,
		},
	}, nil
}

func pctChange(bars []models.MarketObservation, get func(models.MarketObservation) float64) []float64 {
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		prev := get(bars[i-1])
		if prev == 0 {
			continue
		}
		out[i] = (get(bars[i]) - prev) / prev
	}
	return out
}

func zScore(bars []models.MarketObservation) []float64 {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	mean, std := meanStd(vols)
	out := make([]float64, len(bars))
	if std == 0 {
		return out
	}
	for i, v := range vols {
		out[i] = (v - mean) / std
	}
	return out
}

// rsiSeries prefers supplied RSI values and falls back to a rolling-mean RSI
// over rsiPeriod bars. Bars before the first full period are held at 50.
func rsiSeries(bars []models.MarketObservation) []float64 {
	out := make([]float64, len(bars))
	for i := range out {
		out[i] = 50
	}
	gains := make([]float64, len(bars))
	losses := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		d := bars[i].Close - bars[i-1].Close
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	for i := rsiPeriod; i < len(bars); i++ {
		var g, l float64
		for j := i - rsiPeriod + 1; j <= i; j++ {
			g += gains[j]
			l += losses[j]
		}
		switch {
		case l == 0 && g == 0:
			out[i] = 50
		case l == 0:
			out[i] = 100
		default:
			rs := g / l
			out[i] = 100 - 100/(1+rs)
		}
	}
	for i, b := range bars {
		if b.Indicators != nil && b.Indicators.RSI > 0 {
			out[i] = b.Indicators.RSI
		}
	}
	return out
}

// indicatorSeries extracts an optional indicator column. The column is kept
// only when the latest bar supplies a value; earlier gaps stay at 0.
func indicatorSeries(bars []models.MarketObservation, get func(*models.TechnicalIndicators) float64) ([]float64, bool) {
	last := bars[len(bars)-1]
	if last.Indicators == nil || get(last.Indicators) == 0 {
		return nil, false
	}
	out := make([]float64, len(bars))
	for i, b := range bars {
		if b.Indicators != nil {
			out[i] = get(b.Indicators)
		}
	}
	return out, true
}

func meanStd(xs []float64) (float64, float64) {
	if len(xs) < 2 {
		return 0, 0
	}
	sum, sum2 := 0.0, 0.0
	for _, x := range xs {
		sum += x
		sum2 += x * x
	}
	n := float64(len(xs))
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
