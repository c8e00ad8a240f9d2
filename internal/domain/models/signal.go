package models

import "time"

// SignalType is the executable side of a signal.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Strength buckets the conviction behind a signal.
type Strength string

const (
	StrengthWeak       Strength = "WEAK"
	StrengthModerate   Strength = "MODERATE"
	StrengthStrong     Strength = "STRONG"
	StrengthVeryStrong Strength = "VERY_STRONG"
)

// RiskLevel grades the risk carried by a signal.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// Status is the signal lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusExecuted  Status = "EXECUTED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// CandidateSignal is an unvalidated, unpersisted signal proposal produced by
// the synthesizer and pending risk checks.
type CandidateSignal struct {
	Ticker              string
	Exchange            string
	Classification      Classification
	Score               float64
	Confidence          float64
	EntryPrice          float64
	StopLoss            float64
	TakeProfit          float64
	RiskRewardRatio     float64
	PositionSizePercent float64
	ATR                 float64
	Timeframe           Timeframe
	Reasoning           string
	Indicators          FeatureSummary
	CreatedAt           time.Time
}

// Direction returns "long" or "short" for the candidate, "" for HOLD.
func (c *CandidateSignal) Direction() string {
	switch {
	case c.Classification.IsBullish():
		return "long"
	case c.Classification.IsBearish():
		return "short"
	default:
		return ""
	}
}

// Type maps the classification onto an executable signal type.
func (c *CandidateSignal) Type() SignalType {
	switch {
	case c.Classification.IsBullish():
		return SignalBuy
	case c.Classification.IsBearish():
		return SignalSell
	default:
		return SignalHold
	}
}

// Signal is the durable trading signal persisted and published after
// validation. Lifecycle mutations past PENDING happen in execution services.
type Signal struct {
	ID                  string         `json:"id"`
	CreatedAt           time.Time      `json:"created_at"`
	Ticker              string         `json:"ticker"`
	Exchange            string         `json:"exchange,omitempty"`
	Type                SignalType     `json:"signal_type"`
	Strength            Strength       `json:"signal_strength"`
	Classification      Classification `json:"classification"`
	Confidence          float64        `json:"confidence"`
	EntryPrice          float64        `json:"entry_price"`
	StopLoss            float64        `json:"stop_loss"`
	TakeProfit          float64        `json:"take_profit"`
	PositionSizePercent float64        `json:"position_size_percent"`
	RiskRewardRatio     float64        `json:"risk_reward_ratio"`
	RiskLevel           RiskLevel      `json:"risk_level"`
	Status              Status         `json:"status"`
	ValidUntil          time.Time      `json:"valid_until"`
	Timeframe           Timeframe      `json:"timeframe"`
	Reasoning           string         `json:"reasoning,omitempty"`
	TechnicalSummary    FeatureSummary `json:"technical_summary"`
	ModelVersion        string         `json:"model_version"`
}

// Position is an open position reported by the position ledger.
type Position struct {
	Ticker     string     `json:"ticker"`
	Exchange   string     `json:"exchange,omitempty"`
	Type       SignalType `json:"signal_type"`
	EntryPrice float64    `json:"entry_price"`
	Size       float64    `json:"position_size"`
	OpenedAt   time.Time  `json:"opened_at"`
}
