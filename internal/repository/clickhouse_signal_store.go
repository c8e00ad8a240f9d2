package repository

import (
	"context"
	"database/sql"
	"fmt"

	"TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	pkgch "TradePulse/pkg/clickhouse"
)

// CHSignalStore persists validated signals into the signals table.
type CHSignalStore struct {
	db *sql.DB
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB()}
}

func (s *CHSignalStore) Save(ctx context.Context, sig *models.Signal) error {
	const q = `
        INSERT INTO tradepulse.signals
        (id, created_at, ticker, exchange, signal_type, signal_strength, classification,
         confidence, entry_price, stop_loss, take_profit, position_size_percent,
         risk_reward_ratio, risk_level, status, valid_until, timeframe, reasoning,
         rsi, trend, volatility, model_version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		sig.ID,
		sig.CreatedAt,
		sig.Ticker,
		sig.Exchange,
		string(sig.Type),
		string(sig.Strength),
		string(sig.Classification),
		sig.Confidence,
		sig.EntryPrice,
		sig.StopLoss,
		sig.TakeProfit,
		sig.PositionSizePercent,
		sig.RiskRewardRatio,
		string(sig.RiskLevel),
		string(sig.Status),
		sig.ValidUntil,
		string(sig.Timeframe),
		sig.Reasoning,
		sig.TechnicalSummary.RSI,
		sig.TechnicalSummary.Trend,
		sig.TechnicalSummary.Volatility,
		sig.ModelVersion,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // Pool managed by pkg client
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)
