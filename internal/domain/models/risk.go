package models

// RiskParameters bounds what the risk validator will let through. Fractions
// are of total account equity.
type RiskParameters struct {
	MaxPositionSize         float64 `yaml:"max_position_size" default:"0.02" validate:"gt=0,lte=0.1"`
	MaxRiskPerTrade         float64 `yaml:"max_risk_per_trade" default:"0.01" validate:"gt=0,lte=0.1"`
	StopLossPercent         float64 `yaml:"stop_loss_percent" default:"0.02" validate:"gt=0,lte=0.1"`
	TakeProfitPercent       float64 `yaml:"take_profit_percent" default:"0.05" validate:"gt=0,lte=0.1"`
	MaxDailyTrades          int     `yaml:"max_daily_trades" default:"10" validate:"gt=0"`
	MaxOpenPositions        int     `yaml:"max_open_positions" default:"5" validate:"gt=0"`
	MaxCorrelation          float64 `yaml:"max_correlation" default:"0.7" validate:"gt=0,lte=1"`
	StopLossATRMultiplier   float64 `yaml:"stop_loss_atr_multiplier" default:"2.0" validate:"gt=0"`
	TakeProfitATRMultiplier float64 `yaml:"take_profit_atr_multiplier" default:"3.0" validate:"gt=0"`
}

// ValidationResult is the full outcome of risk validation for one candidate.
// Adjusted* fields are advisory: they are filled when a check wants a smaller
// size or a missing level, but the original candidate is what gets re-checked.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`

	RiskCheckPassed         bool `json:"risk_check_passed"`
	PositionSizeCheckPassed bool `json:"position_size_check_passed"`
	CorrelationCheckPassed  bool `json:"correlation_check_passed"`
	MarketHoursCheckPassed  bool `json:"market_hours_check_passed"`
	LiquidityCheckPassed    bool `json:"liquidity_check_passed"`

	AdjustedPositionSize *float64 `json:"adjusted_position_size,omitempty"`
	AdjustedStopLoss     *float64 `json:"adjusted_stop_loss,omitempty"`
	AdjustedTakeProfit   *float64 `json:"adjusted_take_profit,omitempty"`

	Warnings        []string `json:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}
