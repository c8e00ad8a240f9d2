package risk

import (
	"context"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
)

// LocalLedger is a process-local position ledger backing the exposure checks.
// The daily trade counter rolls over automatically at UTC midnight.
type LocalLedger struct {
	mu         sync.Mutex
	positions  map[string]models.Position
	trades     int
	counterDay time.Time
	now        func() time.Time
}

func NewLocalLedger() *LocalLedger {
	return &LocalLedger{
		positions: make(map[string]models.Position),
		now:       time.Now,
	}
}

func ledgerKey(ticker, exchange string) string {
	return ticker + "|" + exchange
}

// RecordTrade registers an executed signal as an open position and counts it
// against the daily limit.
func (l *LocalLedger) RecordTrade(signal *models.Signal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked()
	l.trades++
	l.positions[ledgerKey(signal.Ticker, signal.Exchange)] = models.Position{
		Ticker:     signal.Ticker,
		Exchange:   signal.Exchange,
		Type:       signal.Type,
		EntryPrice: signal.EntryPrice,
		Size:       signal.PositionSizePercent,
		OpenedAt:   l.now(),
	}
}

func (l *LocalLedger) ClosePosition(ticker, exchange string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.positions, ledgerKey(ticker, exchange))
}

// ResetDailyCounters zeroes the daily trade count. Exposed for operational
// resets; normal rollover happens automatically.
func (l *LocalLedger) ResetDailyCounters() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = 0
	l.counterDay = l.now().UTC().Truncate(24 * time.Hour)
}

func (l *LocalLedger) OpenPositions(_ context.Context) ([]models.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, p)
	}
	return out, nil
}

func (l *LocalLedger) TradesToday(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollDayLocked()
	return l.trades, nil
}

func (l *LocalLedger) rollDayLocked() {
	day := l.now().UTC().Truncate(24 * time.Hour)
	if !day.Equal(l.counterDay) {
		l.trades = 0
		l.counterDay = day
	}
}

var _ repository.PositionLedger = (*LocalLedger)(nil)
