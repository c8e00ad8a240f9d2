package risk

import (
	"context"
	"fmt"
	"strings"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
)

// Predicate is a pluggable pass/fail check over a candidate. Defaults always
// pass until real correlation, calendar and liquidity data sources exist.
type Predicate func(ctx context.Context, c *models.CandidateSignal) bool

// Validator runs the sequential risk checks over a candidate signal.
// Adjustments are advisory: a reduced size or auto-filled stop level is
// reported on the result, the original candidate is never mutated or
// re-checked.
type Validator struct {
	params      models.RiskParameters
	ledger      repository.PositionLedger
	log         *logger.Logger
	correlation Predicate
	marketHours Predicate
	liquidity   Predicate
}

type Option func(*Validator)

func WithCorrelationCheck(p Predicate) Option { return func(v *Validator) { v.correlation = p } }
func WithMarketHoursCheck(p Predicate) Option { return func(v *Validator) { v.marketHours = p } }
func WithLiquidityCheck(p Predicate) Option   { return func(v *Validator) { v.liquidity = p } }

func NewValidator(params models.RiskParameters, ledger repository.PositionLedger, log *logger.Logger, opts ...Option) *Validator {
	pass := func(context.Context, *models.CandidateSignal) bool { return true }
	v := &Validator{
		params:      params,
		ledger:      ledger,
		log:         log,
		correlation: pass,
		marketHours: pass,
		liquidity:   pass,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every check and returns the aggregate result. A failed
// market-hours check only warns; every other failed check invalidates the
// candidate. The returned error covers infrastructure faults (ledger
// unreachable), not risk rejections.
func (v *Validator) Validate(ctx context.Context, c *models.CandidateSignal) (*models.ValidationResult, error) {
	res := &models.ValidationResult{
		RiskCheckPassed:         true,
		PositionSizeCheckPassed: true,
		CorrelationCheckPassed:  true,
		MarketHoursCheckPassed:  true,
		LiquidityCheckPassed:    true,
	}

	v.checkPositionSize(c, res)
	v.checkRiskPerTrade(c, res)
	if err := v.checkExposure(ctx, c, res); err != nil {
		return nil, err
	}

	if !v.correlation(ctx, c) {
		res.CorrelationCheckPassed = false
		res.Errors = append(res.Errors, fmt.Sprintf("correlation: %s exceeds max correlation %.2f with open positions", c.Ticker, v.params.MaxCorrelation))
	}
	if !v.marketHours(ctx, c) {
		res.MarketHoursCheckPassed = false
		res.Warnings = append(res.Warnings, "market closed, signal may be stale at open")
	}
	if !v.liquidity(ctx, c) {
		res.LiquidityCheckPassed = false
		res.Errors = append(res.Errors, fmt.Sprintf("liquidity: insufficient liquidity for %s", c.Ticker))
	}

	res.IsValid = len(res.Errors) == 0
	if res.IsValid {
		v.fillStopLevels(c, res)
	}
	v.recommend(c, res)

	if v.log != nil && !res.IsValid {
		v.log.Warn("candidate rejected by risk checks",
			logger.String("ticker", c.Ticker),
			logger.Any("errors", res.Errors))
	}
	return res, nil
}

// checkPositionSize rejects an oversized request but still reports the capped
// size as an adjustment. The adjusted size is advisory only: validation is not
// re-run with it.
func (v *Validator) checkPositionSize(c *models.CandidateSignal, res *models.ValidationResult) {
	if c.PositionSizePercent <= v.params.MaxPositionSize {
		return
	}
	adjusted := v.params.MaxPositionSize
	res.PositionSizeCheckPassed = false
	res.AdjustedPositionSize = &adjusted
	res.Errors = append(res.Errors,
		fmt.Sprintf("position_size: size %.4f exceeds max %.4f", c.PositionSizePercent, adjusted))
}

// checkRiskPerTrade bounds the stop distance as a fraction of entry. A
// candidate without a stop level skips the check; fillStopLevels supplies one
// afterwards.
func (v *Validator) checkRiskPerTrade(c *models.CandidateSignal, res *models.ValidationResult) {
	if c.StopLoss <= 0 || c.EntryPrice <= 0 {
		return
	}
	riskFraction := abs(c.EntryPrice-c.StopLoss) / c.EntryPrice
	if riskFraction > v.params.MaxRiskPerTrade {
		res.RiskCheckPassed = false
		res.Errors = append(res.Errors,
			fmt.Sprintf("risk: per-trade risk %.4f exceeds max %.4f", riskFraction, v.params.MaxRiskPerTrade))
	}
}

func (v *Validator) checkExposure(ctx context.Context, c *models.CandidateSignal, res *models.ValidationResult) error {
	trades, err := v.ledger.TradesToday(ctx)
	if err != nil {
		return fmt.Errorf("ledger trades today: %w", err)
	}
	if trades >= v.params.MaxDailyTrades {
		res.RiskCheckPassed = false
		res.Errors = append(res.Errors,
			fmt.Sprintf("daily_limit: daily trade limit reached (%d/%d)", trades, v.params.MaxDailyTrades))
	}

	positions, err := v.ledger.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("ledger open positions: %w", err)
	}
	if len(positions) >= v.params.MaxOpenPositions {
		res.RiskCheckPassed = false
		res.Errors = append(res.Errors,
			fmt.Sprintf("open_positions: open position limit reached (%d/%d)", len(positions), v.params.MaxOpenPositions))
	}
	return nil
}

// fillStopLevels derives missing stop-loss / take-profit from ATR multipliers,
// only for candidates that passed every hard check.
func (v *Validator) fillStopLevels(c *models.CandidateSignal, res *models.ValidationResult) {
	if c.ATR <= 0 || c.EntryPrice <= 0 {
		return
	}
	bearish := c.Classification.IsBearish()
	if c.StopLoss == 0 {
		sl := c.EntryPrice - v.params.StopLossATRMultiplier*c.ATR
		if bearish {
			sl = c.EntryPrice + v.params.StopLossATRMultiplier*c.ATR
		}
		res.AdjustedStopLoss = &sl
	}
	if c.TakeProfit == 0 {
		tp := c.EntryPrice + v.params.TakeProfitATRMultiplier*c.ATR
		if bearish {
			tp = c.EntryPrice - v.params.TakeProfitATRMultiplier*c.ATR
		}
		res.AdjustedTakeProfit = &tp
	}
}

func (v *Validator) recommend(c *models.CandidateSignal, res *models.ValidationResult) {
	switch {
	case c.RiskRewardRatio > 0 && c.RiskRewardRatio < 1.5:
		res.Recommendations = append(res.Recommendations,
			fmt.Sprintf("risk/reward %.2f is weak, consider skipping", c.RiskRewardRatio))
	case c.RiskRewardRatio > 3:
		res.Recommendations = append(res.Recommendations,
			fmt.Sprintf("risk/reward %.2f is excellent", c.RiskRewardRatio))
	}
	if c.Indicators.Volatility > 0.05 {
		res.Recommendations = append(res.Recommendations,
			"high volatility, consider a wider stop")
	}
}

// RejectionReason buckets an invalid result for metrics. Error strings carry a
// stable "<bucket>:" prefix.
func RejectionReason(res *models.ValidationResult) string {
	if res.IsValid || len(res.Errors) == 0 {
		return ""
	}
	first := res.Errors[0]
	if i := strings.IndexByte(first, ':'); i > 0 {
		return first[:i]
	}
	return "other"
}

// GradeRisk scores a candidate's risk level from position size, risk/reward
// and recent volatility.
func GradeRisk(c *models.CandidateSignal) models.RiskLevel {
	score := 0
	switch {
	case c.PositionSizePercent > 0.05:
		score += 2
	case c.PositionSizePercent > 0.02:
		score++
	}
	switch {
	case c.RiskRewardRatio > 0 && c.RiskRewardRatio < 1.5:
		score += 2
	case c.RiskRewardRatio > 0 && c.RiskRewardRatio < 2:
		score++
	}
	switch {
	case c.Indicators.Volatility > 0.08:
		score += 2
	case c.Indicators.Volatility > 0.05:
		score++
	}
	switch {
	case score >= 5:
		return models.RiskVeryHigh
	case score >= 3:
		return models.RiskHigh
	case score >= 1:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
