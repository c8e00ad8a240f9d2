package repository

import "fmt"

// SchemaStatements returns idempotent DDL for the database, the per-timeframe
// bar tables and the signals table. Run once at startup via Client.InitSchema.
func SchemaStatements() []string {
	stmts := []string{
		`CREATE DATABASE IF NOT EXISTS tradepulse`,
	}
	for _, tf := range []string{"1m", "5m", "15m", "1h", "4h", "1d"} {
		stmts = append(stmts, fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS tradepulse.bars_%s (
                ts DateTime64(3),
                ticker LowCardinality(String),
                exchange LowCardinality(String) DEFAULT '',
                open Float64,
                high Float64,
                low Float64,
                close Float64,
                volume Float64,
                rsi Float64 DEFAULT 0,
                macd Float64 DEFAULT 0,
                atr Float64 DEFAULT 0,
                sma_50 Float64 DEFAULT 0,
                sma_200 Float64 DEFAULT 0,
                adx Float64 DEFAULT 0
            ) ENGINE = ReplacingMergeTree
            PARTITION BY toYYYYMM(ts)
            ORDER BY (ticker, exchange, ts)
        `, tf))
	}
	stmts = append(stmts, `
        CREATE TABLE IF NOT EXISTS tradepulse.signals (
            id UUID,
            created_at DateTime64(3),
            ticker LowCardinality(String),
            exchange LowCardinality(String) DEFAULT '',
            signal_type LowCardinality(String),
            signal_strength LowCardinality(String),
            classification LowCardinality(String),
            confidence Float64,
            entry_price Float64,
            stop_loss Float64,
            take_profit Float64,
            position_size_percent Float64,
            risk_reward_ratio Float64,
            risk_level LowCardinality(String),
            status LowCardinality(String),
            valid_until DateTime64(3),
            timeframe LowCardinality(String),
            reasoning String,
            rsi Float64,
            trend Float64,
            volatility Float64,
            model_version LowCardinality(String)
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(created_at)
        ORDER BY (ticker, created_at)
    `)
	return stmts
}
