package models

import "time"

// Timeframe represents bar aggregation granularity.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF15m, TF1h, TF4h, TF1d:
		return true
	default:
		return false
	}
}

// DefaultTimeframes returns the timeframes evaluated per pipeline pass.
func DefaultTimeframes() []Timeframe {
	return []Timeframe{TF1m, TF5m, TF15m, TF1h, TF4h}
}

// Duration returns the bar width for a timeframe. Used to break aggregation
// ties in favor of the shorter timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1m:
		return time.Minute
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	case TF1h:
		return time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF1d:
		return 24 * time.Hour
	default:
		return time.Hour
	}
}

// Lookback returns how much history is fetched for a timeframe so that a
// window comfortably exceeds the minimum bar count.
func (tf Timeframe) Lookback() time.Duration {
	switch tf {
	case TF1m:
		return 4 * time.Hour
	case TF5m:
		return 12 * time.Hour
	case TF15m:
		return 24 * time.Hour
	case TF1h:
		return 7 * 24 * time.Hour
	case TF4h:
		return 30 * 24 * time.Hour
	case TF1d:
		return 180 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
