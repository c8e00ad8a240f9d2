package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
	"TradePulse/pkg/util"
)

// MarketDataHandler consumes market-data events and feeds the event path of
// the engine. Envelope: {"type":"market_data","data":{...bar...}}.
type MarketDataHandler struct {
	topic   string
	engine  *Engine
	metrics repository.Metrics
}

func NewMarketDataHandler(topic string, engine *Engine, metrics repository.Metrics) *MarketDataHandler {
	return &MarketDataHandler{topic: topic, engine: engine, metrics: metrics}
}

func (h *MarketDataHandler) Topic() string { return h.topic }

func (h *MarketDataHandler) Handle(ctx context.Context, b []byte) error {
	var env struct {
		Type string `json:"type"`
		Data struct {
			Ticker     string                      `json:"ticker"`
			Exchange   string                      `json:"exchange"`
			Timestamp  json.RawMessage             `json:"timestamp"`
			Open       float64                     `json:"open"`
			High       float64                     `json:"high"`
			Low        float64                     `json:"low"`
			Close      float64                     `json:"close"`
			Volume     float64                     `json:"volume"`
			Indicators *models.TechnicalIndicators `json:"technical_indicators"`
			Context    *models.MarketContext       `json:"market_context"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("unmarshal market data: %w", err)
	}
	if env.Type != "market_data" {
		// Other event types share the topic; not ours.
		return nil
	}
	if env.Data.Ticker == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("market data event without ticker")
	}

	obs := &models.MarketObservation{
		Ticker:     env.Data.Ticker,
		Exchange:   env.Data.Exchange,
		Timestamp:  parseEventTime(env.Data.Timestamp),
		Open:       env.Data.Open,
		High:       env.Data.High,
		Low:        env.Data.Low,
		Close:      env.Data.Close,
		Volume:     env.Data.Volume,
		Indicators: env.Data.Indicators,
		Context:    env.Data.Context,
	}
	return h.engine.HandleObservation(ctx, obs)
}

// parseEventTime accepts RFC3339 strings or unix-second numbers, defaulting
// to now for anything unparseable.
func parseEventTime(raw json.RawMessage) time.Time {
	s := string(bytes.Trim(bytes.TrimSpace(raw), `"`))
	return util.ParseTimeDefault(s, time.Now())
}

var _ pkgkafka.MessageHandler = (*MarketDataHandler)(nil)
