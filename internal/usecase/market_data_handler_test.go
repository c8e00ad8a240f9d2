package usecase

import (
	"context"
	"testing"
)

func TestMarketDataHandlerRoutesWatchedBar(t *testing.T) {
	deps := defaultDeps()
	engine := newTestEngine(t, deps)
	h := NewMarketDataHandler("market_data", engine, deps.metrics)

	if got := h.Topic(); got != "market_data" {
		t.Fatalf("Topic() = %q", got)
	}

	msg := []byte(`{"type":"market_data","data":{"ticker":"AAPL",` +
		`"timestamp":"2026-08-01T10:00:00Z","open":100,"high":101,"low":99,"close":100.5,"volume":1200}}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(deps.store.saved) != 1 {
		t.Fatalf("saved = %d, want a signal from the event path", len(deps.store.saved))
	}
}

func TestMarketDataHandlerIgnoresOtherEventTypes(t *testing.T) {
	deps := defaultDeps()
	engine := newTestEngine(t, deps)
	h := NewMarketDataHandler("market_data", engine, deps.metrics)

	if err := h.Handle(context.Background(), []byte(`{"type":"heartbeat","data":{}}`)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(deps.store.saved) != 0 {
		t.Fatalf("saved = %d, want 0 for foreign event types", len(deps.store.saved))
	}
}

func TestMarketDataHandlerRejectsMalformedEvents(t *testing.T) {
	deps := defaultDeps()
	engine := newTestEngine(t, deps)
	h := NewMarketDataHandler("market_data", engine, deps.metrics)

	if err := h.Handle(context.Background(), []byte(`{not json`)); err == nil {
		t.Fatal("want error for malformed payload")
	}
	if err := h.Handle(context.Background(), []byte(`{"type":"market_data","data":{"exchange":"NASDAQ"}}`)); err == nil {
		t.Fatal("want error for missing ticker")
	}
}

func TestParseEventTimeForms(t *testing.T) {
	rfc := parseEventTime([]byte(`"2026-08-01T10:00:00Z"`))
	if rfc.UTC().Hour() != 10 {
		t.Fatalf("rfc3339 parse = %v", rfc)
	}
	unix := parseEventTime([]byte(`1754042400`))
	if unix.Unix() != 1754042400 {
		t.Fatalf("unix parse = %v", unix)
	}
	if parseEventTime([]byte(`"garbage"`)).IsZero() {
		t.Fatal("unparseable timestamp should default to now, not zero")
	}
}
