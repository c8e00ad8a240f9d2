package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
kafka:
  brokers: ["localhost:9092"]
clickhouse:
  host: localhost
engine:
  watchlist:
    - ticker: AAPL
      exchange: NASDAQ
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("server port = %d", cfg.Server.Port)
	}
	if cfg.Engine.Dedup.Backend != "memory" || cfg.Engine.Dedup.Cooldown != 300*time.Second {
		t.Fatalf("dedup defaults = %+v", cfg.Engine.Dedup)
	}
	if cfg.Engine.ConfidenceFloor != 0.70 {
		t.Fatalf("confidence floor = %v", cfg.Engine.ConfidenceFloor)
	}
	if cfg.Engine.Thresholds.Buy != 0.65 || cfg.Engine.Thresholds.StrongSell != -0.85 {
		t.Fatalf("thresholds = %+v", cfg.Engine.Thresholds)
	}
	if cfg.Risk.MaxPositionSize != 0.02 || cfg.Risk.StopLossATRMultiplier != 2.0 {
		t.Fatalf("risk defaults = %+v", cfg.Risk)
	}
	if len(cfg.Engine.Watchlist) != 1 || cfg.Engine.Watchlist[0].Exchange != "NASDAQ" {
		t.Fatalf("watchlist = %+v", cfg.Engine.Watchlist)
	}
}

func TestLoadRejectsOutOfRangeRisk(t *testing.T) {
	body := minimalYAML + `
risk:
  max_position_size: 0.5
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("want validation error for max_position_size > 0.1")
	}
}

func TestLoadRejectsRemoteModeWithoutURL(t *testing.T) {
	body := `
environment: test
kafka:
  brokers: ["localhost:9092"]
clickhouse:
  host: localhost
engine:
  predictor:
    mode: remote
  watchlist:
    - ticker: AAPL
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("want error for remote predictor without url")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("WATCHLIST", "MSFT,BTC/USD:binance")
	t.Setenv("MODEL_VERSION", "lstm-v2")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Engine.ModelVersion != "lstm-v2" {
		t.Fatalf("model version = %q", cfg.Engine.ModelVersion)
	}
	if len(cfg.Engine.Watchlist) != 2 {
		t.Fatalf("watchlist = %+v", cfg.Engine.Watchlist)
	}
	if cfg.Engine.Watchlist[1].Ticker != "BTC/USD" || cfg.Engine.Watchlist[1].Exchange != "binance" {
		t.Fatalf("watchlist entry = %+v", cfg.Engine.Watchlist[1])
	}
}
