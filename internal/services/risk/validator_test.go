package risk

import (
	"context"
	"testing"
	"time"

	"TradePulse/internal/domain/models"
)

func testParams() models.RiskParameters {
	return models.RiskParameters{
		MaxPositionSize:         0.02,
		MaxRiskPerTrade:         0.01,
		StopLossPercent:         0.02,
		TakeProfitPercent:       0.05,
		MaxDailyTrades:          10,
		MaxOpenPositions:        5,
		MaxCorrelation:          0.7,
		StopLossATRMultiplier:   2.0,
		TakeProfitATRMultiplier: 3.0,
	}
}

func goodCandidate() *models.CandidateSignal {
	return &models.CandidateSignal{
		Ticker:              "AAPL",
		Classification:      models.Buy,
		Confidence:          0.8,
		EntryPrice:          100,
		StopLoss:            99.5,
		TakeProfit:          101.5,
		RiskRewardRatio:     3.0,
		PositionSizePercent: 0.02,
		ATR:                 1.0,
		Timeframe:           models.TF1h,
		Indicators:          models.FeatureSummary{RSI: 28, Trend: 0.002, Volatility: 0.01},
		CreatedAt:           time.Now(),
	}
}

func TestValidateAccepts(t *testing.T) {
	v := NewValidator(testParams(), NewLocalLedger(), nil)
	res, err := v.Validate(context.Background(), goodCandidate())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected valid, got errors %v", res.Errors)
	}
	if !res.RiskCheckPassed || !res.PositionSizeCheckPassed {
		t.Fatalf("unexpected check flags: %+v", res)
	}
}

func TestValidateRejectsOversizedPosition(t *testing.T) {
	v := NewValidator(testParams(), NewLocalLedger(), nil)
	c := goodCandidate()
	c.PositionSizePercent = 0.08
	c.StopLoss = 99.9 // keep trade risk under the cap so size is the only failure

	res, err := v.Validate(context.Background(), c)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.IsValid || res.PositionSizeCheckPassed {
		t.Fatalf("oversized position must be rejected, got %+v", res)
	}
	if res.AdjustedPositionSize == nil || *res.AdjustedPositionSize != 0.02 {
		t.Fatalf("expected adjusted size 0.02, got %v", res.AdjustedPositionSize)
	}
	if c.PositionSizePercent != 0.08 {
		t.Fatalf("candidate mutated: size %v", c.PositionSizePercent)
	}
	if reason := RejectionReason(res); reason != "position_size" {
		t.Fatalf("rejection reason = %q, want position_size", reason)
	}
}

func TestValidateRejectsExcessiveTradeRisk(t *testing.T) {
	v := NewValidator(testParams(), NewLocalLedger(), nil)
	c := goodCandidate()
	c.StopLoss = 98 // 2% stop distance > 1% per-trade cap

	res, err := v.Validate(context.Background(), c)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.IsValid || res.RiskCheckPassed {
		t.Fatalf("expected risk rejection, got %+v", res)
	}
	if reason := RejectionReason(res); reason != "risk" {
		t.Fatalf("rejection reason = %q, want risk", reason)
	}
}

// A candidate without a stop level skips the per-trade risk check entirely;
// the stop is filled from ATR multipliers afterwards instead.
func TestValidateSkipsRiskCheckWithoutStop(t *testing.T) {
	v := NewValidator(testParams(), NewLocalLedger(), nil)
	c := goodCandidate()
	c.StopLoss = 0

	res, err := v.Validate(context.Background(), c)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !res.IsValid || !res.RiskCheckPassed {
		t.Fatalf("missing stop must not trip the risk check, got %+v", res)
	}
	if res.AdjustedStopLoss == nil {
		t.Fatalf("expected a filled stop level")
	}
}

func TestValidateDailyTradeLimit(t *testing.T) {
	params := testParams()
	params.MaxDailyTrades = 2
	ledger := NewLocalLedger()
	for i := 0; i < 2; i++ {
		ledger.RecordTrade(&models.Signal{Ticker: "MSFT", Type: models.SignalBuy})
		ledger.ClosePosition("MSFT", "")
	}
	v := NewValidator(params, ledger, nil)

	res, err := v.Validate(context.Background(), goodCandidate())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.IsValid {
		t.Fatalf("expected daily limit rejection")
	}
	if reason := RejectionReason(res); reason != "daily_limit" {
		t.Fatalf("rejection reason = %q, want daily_limit", reason)
	}
}

func TestValidateOpenPositionLimit(t *testing.T) {
	params := testParams()
	params.MaxOpenPositions = 1
	ledger := NewLocalLedger()
	ledger.RecordTrade(&models.Signal{Ticker: "MSFT", Type: models.SignalBuy})
	v := NewValidator(params, ledger, nil)

	res, err := v.Validate(context.Background(), goodCandidate())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.IsValid {
		t.Fatalf("expected open position rejection")
	}
	if reason := RejectionReason(res); reason != "open_positions" {
		t.Fatalf("rejection reason = %q, want open_positions", reason)
	}
}

func TestValidateMarketHoursOnlyWarns(t *testing.T) {
	closed := func(context.Context, *models.CandidateSignal) bool { return false }
	v := NewValidator(testParams(), NewLocalLedger(), nil, WithMarketHoursCheck(closed))

	res, err := v.Validate(context.Background(), goodCandidate())
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("market hours failure must not invalidate, got %v", res.Errors)
	}
	if res.MarketHoursCheckPassed {
		t.Fatalf("market hours flag should be false")
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("expected a staleness warning")
	}
}

func TestValidateFillsMissingStops(t *testing.T) {
	v := NewValidator(testParams(), NewLocalLedger(), nil)
	c := goodCandidate()
	c.StopLoss = 0
	c.TakeProfit = 0

	res, err := v.Validate(context.Background(), c)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("expected valid, got %v", res.Errors)
	}
	if res.AdjustedStopLoss == nil || *res.AdjustedStopLoss != 98 {
		t.Fatalf("adjusted stop = %v, want 98", res.AdjustedStopLoss)
	}
	if res.AdjustedTakeProfit == nil || *res.AdjustedTakeProfit != 103 {
		t.Fatalf("adjusted take profit = %v, want 103", res.AdjustedTakeProfit)
	}
}

func TestValidateFillsMissingStopsBearish(t *testing.T) {
	v := NewValidator(testParams(), NewLocalLedger(), nil)
	c := goodCandidate()
	c.Classification = models.Sell
	c.StopLoss = 0
	c.TakeProfit = 0

	res, err := v.Validate(context.Background(), c)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.AdjustedStopLoss == nil || *res.AdjustedStopLoss != 102 {
		t.Fatalf("bearish adjusted stop = %v, want 102", res.AdjustedStopLoss)
	}
	if res.AdjustedTakeProfit == nil || *res.AdjustedTakeProfit != 97 {
		t.Fatalf("bearish adjusted take profit = %v, want 97", res.AdjustedTakeProfit)
	}
}

func TestRecommendations(t *testing.T) {
	v := NewValidator(testParams(), NewLocalLedger(), nil)
	c := goodCandidate()
	c.RiskRewardRatio = 1.2
	c.Indicators.Volatility = 0.06

	res, err := v.Validate(context.Background(), c)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(res.Recommendations) != 2 {
		t.Fatalf("expected weak-r/r and volatility recommendations, got %v", res.Recommendations)
	}
}

func TestGradeRisk(t *testing.T) {
	low := goodCandidate()
	if g := GradeRisk(low); g != models.RiskLow {
		t.Fatalf("grade = %s, want LOW", g)
	}

	high := goodCandidate()
	high.PositionSizePercent = 0.06
	high.RiskRewardRatio = 1.2
	if g := GradeRisk(high); g != models.RiskHigh {
		t.Fatalf("grade = %s, want HIGH", g)
	}

	very := goodCandidate()
	very.PositionSizePercent = 0.06
	very.RiskRewardRatio = 1.2
	very.Indicators.Volatility = 0.09
	if g := GradeRisk(very); g != models.RiskVeryHigh {
		t.Fatalf("grade = %s, want VERY_HIGH", g)
	}
}

func TestLedgerLifecycle(t *testing.T) {
	ledger := NewLocalLedger()
	ledger.RecordTrade(&models.Signal{Ticker: "AAPL", Type: models.SignalBuy, EntryPrice: 100, PositionSizePercent: 0.02})
	ledger.RecordTrade(&models.Signal{Ticker: "MSFT", Type: models.SignalSell, EntryPrice: 300, PositionSizePercent: 0.01})

	positions, err := ledger.OpenPositions(context.Background())
	if err != nil {
		t.Fatalf("OpenPositions failed: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("open positions = %d, want 2", len(positions))
	}

	trades, err := ledger.TradesToday(context.Background())
	if err != nil {
		t.Fatalf("TradesToday failed: %v", err)
	}
	if trades != 2 {
		t.Fatalf("trades today = %d, want 2", trades)
	}

	ledger.ClosePosition("AAPL", "")
	positions, _ = ledger.OpenPositions(context.Background())
	if len(positions) != 1 {
		t.Fatalf("open positions after close = %d, want 1", len(positions))
	}

	ledger.ResetDailyCounters()
	trades, _ = ledger.TradesToday(context.Background())
	if trades != 0 {
		t.Fatalf("trades after reset = %d, want 0", trades)
	}
}
