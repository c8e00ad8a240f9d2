package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgch "TradePulse/pkg/clickhouse"
	applogger "TradePulse/pkg/logger"
)

// CHHistoryStore serves bar windows from the per-timeframe ClickHouse tables.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, l *applogger.Logger) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB(), l: l}
}

func (s *CHHistoryStore) FetchWindow(ctx context.Context, ticker, exchange string, tf models.Timeframe, since time.Time) (*models.TimeSeriesWindow, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	const qtpl = `
        SELECT ts, open, high, low, close, volume, rsi, macd, atr, sma_50, sma_200, adx
        FROM %s
        WHERE ticker = ? AND (? = '' OR exchange = ?) AND ts >= ?
        ORDER BY ts ASC
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, ticker, exchange, exchange, since)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse fetch_window query error",
				applogger.String("table", table),
				applogger.String("ticker", ticker),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("fetch window: %w", err)
	}
	defer rows.Close()

	bars := make([]models.MarketObservation, 0, 256)
	for rows.Next() {
		var (
			bar models.MarketObservation
			ind models.TechnicalIndicators
		)
		if err := rows.Scan(&bar.Timestamp, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume,
			&ind.RSI, &ind.MACD, &ind.ATR, &ind.SMA50, &ind.SMA200, &ind.ADX); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bar.Ticker = ticker
		bar.Exchange = exchange
		if ind != (models.TechnicalIndicators{}) {
			bar.Indicators = &ind
		}
		bars = append(bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse fetch_window ok",
			applogger.String("table", table),
			applogger.String("ticker", ticker),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return &models.TimeSeriesWindow{
		Ticker:    ticker,
		Exchange:  exchange,
		Timeframe: tf,
		Bars:      bars,
	}, nil
}

func tableForTF(tf models.Timeframe) (string, error) {
	switch tf {
	case models.TF1m:
		return "tradepulse.bars_1m", nil
	case models.TF5m:
		return "tradepulse.bars_5m", nil
	case models.TF15m:
		return "tradepulse.bars_15m", nil
	case models.TF1h:
		return "tradepulse.bars_1h", nil
	case models.TF4h:
		return "tradepulse.bars_4h", nil
	case models.TF1d:
		return "tradepulse.bars_1d", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}

var _ domrepo.HistoryStore = (*CHHistoryStore)(nil)
