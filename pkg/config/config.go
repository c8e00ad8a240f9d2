package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/services/predictor"
	"TradePulse/internal/usecase"
)

type Config struct {
	Environment string `yaml:"environment" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logger"`
	Kafka struct {
		Brokers         []string `yaml:"brokers" validate:"required,min=1"`
		MarketDataTopic string   `yaml:"market_data_topic" default:"market_data"`
		SignalTopic     string   `yaml:"signal_topic" default:"trading_signals"`
		RequiredAcks    int      `yaml:"required_acks" default:"-1"`
		Compression     string   `yaml:"compression" default:"gzip"`
		Producer        struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"tradepulse"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"10000"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"tradepulse"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Engine struct {
		ModelVersion    string                `yaml:"model_version" default:"heuristic-v1"`
		BatchInterval   time.Duration         `yaml:"batch_interval" default:"60s"`
		ScanRate        float64               `yaml:"scan_rate" default:"5"`
		ConfidenceFloor float64               `yaml:"confidence_floor" default:"0.70" validate:"gt=0,lte=1"`
		SignalTTL       time.Duration         `yaml:"signal_ttl" default:"4h"`
		Thresholds      predictor.Thresholds  `yaml:"thresholds"`
		Timeframes      []models.Timeframe    `yaml:"timeframes"`
		Watchlist       []usecase.WatchEntry  `yaml:"watchlist" validate:"required,min=1,dive"`
		Dedup           struct {
			Backend  string        `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
			Cooldown time.Duration `yaml:"cooldown" default:"300s"`
		} `yaml:"dedup"`
		Predictor struct {
			Mode      string        `yaml:"mode" default:"heuristic" validate:"oneof=heuristic remote"`
			RemoteURL string        `yaml:"remote_url"`
			Timeout   time.Duration `yaml:"timeout" default:"5s"`
			RetryMax  int           `yaml:"retry_max" default:"3"`
		} `yaml:"predictor"`
		Publish struct {
			MaxAttempts int           `yaml:"max_attempts" default:"3"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"500ms"`
			Timeout     time.Duration `yaml:"timeout" default:"10s"`
		} `yaml:"publish"`
	} `yaml:"engine"`
	Risk models.RiskParameters `yaml:"risk"`
}

// Load reads a YAML configuration file, applies struct defaults and validates
// the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("MODEL_VERSION"); v != "" {
		c.Engine.ModelVersion = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Engine.Watchlist = parseWatchlist(v)
	}

	return c, nil
}

// parseWatchlist parses "AAPL,MSFT:NASDAQ,BTC/USD:binance" into entries.
func parseWatchlist(s string) []usecase.WatchEntry {
	parts := strings.Split(s, ",")
	out := make([]usecase.WatchEntry, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		entry := usecase.WatchEntry{Ticker: p}
		if i := strings.LastIndex(p, ":"); i > 0 {
			entry.Ticker = p[:i]
			entry.Exchange = p[i+1:]
		}
		out = append(out, entry)
	}
	return out
}

// Validate checks the configuration: struct tags first, then the cross-field
// rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if err := c.Engine.Thresholds.Validate(); err != nil {
		return err
	}
	if c.Engine.BatchInterval <= 0 {
		return fmt.Errorf("engine.batch_interval must be positive")
	}
	if c.Engine.Dedup.Cooldown <= 0 {
		return fmt.Errorf("engine.dedup.cooldown must be positive")
	}
	if c.Engine.Predictor.Mode == "remote" && c.Engine.Predictor.RemoteURL == "" {
		return fmt.Errorf("engine.predictor.remote_url is required in remote mode")
	}
	for _, tf := range c.Engine.Timeframes {
		if !models.IsValidTimeframe(tf) {
			return fmt.Errorf("engine.timeframes: unsupported timeframe %q", tf)
		}
	}
	return nil
}
