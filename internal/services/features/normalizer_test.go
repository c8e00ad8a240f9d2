package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func makeWindow(n int, step float64) *models.TimeSeriesWindow {
	base := time.Date(2025, 6, 2, 14, 0, 0, 0, time.UTC)
	bars := make([]models.MarketObservation, n)
	price := 100.0
	for i := 0; i < n; i++ {
		bars[i] = models.MarketObservation{
			Ticker:    "AAPL",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price * 1.001,
			Low:       price * 0.999,
			Close:     price + step,
			Volume:    1000 + float64(i%7)*50,
		}
		price += step
	}
	return &models.TimeSeriesWindow{Ticker: "AAPL", Timeframe: models.TF1m, Bars: bars}
}

func TestNormalizeRejectsShortWindow(t *testing.T) {
	w := makeWindow(MinWindow-1, 0.1)
	if _, err := Normalize(w); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestNormalizeShape(t *testing.T) {
	w := makeWindow(60, 0.1)
	m, err := Normalize(w)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(m.Rows) != 60 {
		t.Fatalf("expected 60 rows, got %d", len(m.Rows))
	}
	if len(m.Columns) != 6 {
		t.Fatalf("expected 6 columns without optional indicators, got %d: %v", len(m.Columns), m.Columns)
	}
	for i, row := range m.Rows {
		if len(row) != len(m.Columns) {
			t.Fatalf("row %d has %d cells, want %d", i, len(row), len(m.Columns))
		}
		for j, v := range row {
			if v < -1 || v > 1 {
				t.Fatalf("cell [%d][%d] = %v outside [-1, 1]", i, j, v)
			}
		}
	}
	// First row is all zeros for pct columns (no prior bar) and 50/3 for RSI.
	for j, col := range m.Columns {
		if col == ColRSI {
			continue
		}
		if v := m.Rows[0][j]; col != ColVolumeZ && v != 0 {
			t.Fatalf("first row %s = %v, want 0", col, v)
		}
	}
}

func TestNormalizeSummaryTrend(t *testing.T) {
	up := makeWindow(60, 0.2)
	m, err := Normalize(up)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if m.Summary.Trend <= 0 {
		t.Fatalf("uptrend window produced trend %v, want > 0", m.Summary.Trend)
	}
	if m.Summary.Volatility < 0 {
		t.Fatalf("negative volatility %v", m.Summary.Volatility)
	}
	if m.Summary.RSI <= 50 {
		t.Fatalf("uptrend RSI = %v, want > 50", m.Summary.RSI)
	}

	down := makeWindow(60, -0.2)
	m, err = Normalize(down)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if m.Summary.Trend >= 0 {
		t.Fatalf("downtrend window produced trend %v, want < 0", m.Summary.Trend)
	}
	if m.Summary.RSI >= 50 {
		t.Fatalf("downtrend RSI = %v, want < 50", m.Summary.RSI)
	}
}

func TestNormalizePrefersSuppliedRSI(t *testing.T) {
	w := makeWindow(55, 0.1)
	w.Bars[len(w.Bars)-1].Indicators = &models.TechnicalIndicators{RSI: 27.5}
	m, err := Normalize(w)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if m.Summary.RSI != 27.5 {
		t.Fatalf("summary RSI = %v, want supplied 27.5", m.Summary.RSI)
	}
}

func TestNormalizeConstantVolume(t *testing.T) {
	w := makeWindow(52, 0.1)
	for i := range w.Bars {
		w.Bars[i].Volume = 500
	}
	m, err := Normalize(w)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	zi := -1
	for j, c := range m.Columns {
		if c == ColVolumeZ {
			zi = j
		}
	}
	if zi < 0 {
		t.Fatalf("volume_z column missing: %v", m.Columns)
	}
	for i, row := range m.Rows {
		if row[zi] != 0 {
			t.Fatalf("row %d volume_z = %v, want 0 for constant volume", i, row[zi])
		}
	}
}

func TestNormalizeOptionalIndicatorColumns(t *testing.T) {
	w := makeWindow(50, 0.1)
	for i := range w.Bars {
		w.Bars[i].Indicators = &models.TechnicalIndicators{MACD: 0.5, ATR: 1.2}
	}
	m, err := Normalize(w)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(m.Columns) != 8 {
		t.Fatalf("expected macd and atr columns appended, got %v", m.Columns)
	}
	v, ok := m.Latest(ColATR)
	if !ok {
		t.Fatalf("atr column not addressable")
	}
	if math.Abs(v-1.2/3) > 1e-9 {
		t.Fatalf("latest atr = %v, want %v", v, 1.2/3)
	}
}
