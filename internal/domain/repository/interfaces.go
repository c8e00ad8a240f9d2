package repository

import (
	"context"
	"time"

	"TradePulse/internal/domain/models"
)

// HistoryStore serves historical bar windows for scoring.
type HistoryStore interface {
	// FetchWindow returns bars for (ticker, exchange, timeframe) from `since`
	// to now, timestamps ascending. An empty exchange matches any exchange.
	FetchWindow(ctx context.Context, ticker, exchange string, tf models.Timeframe, since time.Time) (*models.TimeSeriesWindow, error)
}

// SignalStore persists validated signals durably.
type SignalStore interface {
	Save(ctx context.Context, signal *models.Signal) error
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher pushes validated signals onto the outbound stream.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, signal *models.Signal) error
	Close() error
}

// PositionLedger reports current exposure for risk checks.
type PositionLedger interface {
	OpenPositions(ctx context.Context) ([]models.Position, error)
	TradesToday(ctx context.Context) (int, error)
}

// Metrics records pipeline observability counters and gauges.
type Metrics interface {
	RecordSignalGenerated(ticker string, classification models.Classification)
	RecordSignalRejected(reason string)
	RecordStageLatency(stage string, seconds float64)
	RecordError(kind string)
	RecordLastScore(ticker string, score float64)
	RecordCacheSize(size int)
}
