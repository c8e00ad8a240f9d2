package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	domrepo "TradePulse/internal/domain/repository"
	domsvc "TradePulse/internal/domain/service"
	"TradePulse/internal/handler/api"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/services/dedup"
	"TradePulse/internal/services/predictor"
	"TradePulse/internal/services/risk"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideHistoryCache builds the bar-window cache: layered (memory + Redis)
// when Redis is enabled, memory-only otherwise.
func ProvideHistoryCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(512)), nil
	}

	host, port := splitHostPort(cfg.Redis.Addr, 6379)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(512)), nil
}

func splitHostPort(addr string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}

// ProvideHistoryStore creates the ClickHouse bar-window reader behind the
// window cache.
func ProvideHistoryStore(chClient *pkgch.Client, c cache.Service, log *applogger.Logger) domrepo.HistoryStore {
	return internalrepo.NewCachedHistoryStore(internalrepo.NewCHHistoryStore(chClient, log), c)
}

// ProvideSignalStore creates the ClickHouse signal repository.
func ProvideSignalStore(chClient *pkgch.Client) domrepo.SignalStore {
	return internalrepo.NewCHSignalStore(chClient)
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic)
}

// ProvideDedupCache selects the dedup backend: in-process by default, Redis
// when suppression must be shared across instances.
func ProvideDedupCache(cfg *config.Config, log *applogger.Logger) dedup.Cache {
	if cfg.Engine.Dedup.Backend == "redis" {
		return dedup.NewRedis(dedup.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Engine.Dedup.Cooldown, log)
	}
	return dedup.NewMemory(cfg.Engine.Dedup.Cooldown)
}

// ProvidePredictor selects the scoring backend. Remote mode wraps the HTTP
// adapter with retries; heuristic mode runs in-process.
func ProvidePredictor(cfg *config.Config, log *applogger.Logger) domsvc.Predictor {
	if cfg.Engine.Predictor.Mode == "remote" {
		remote := predictor.NewRemote(
			cfg.Engine.Predictor.RemoteURL,
			cfg.Engine.Predictor.Timeout,
			cfg.Engine.Thresholds,
		)
		return predictor.NewRetrying(remote, predictor.RetryConfig{
			MaxAttempts:    cfg.Engine.Predictor.RetryMax,
			AttemptTimeout: cfg.Engine.Predictor.Timeout,
		}, log)
	}
	return predictor.NewHeuristic(cfg.Engine.Thresholds)
}

// ProvideRiskValidator creates the risk validator over a local position ledger.
func ProvideRiskValidator(cfg *config.Config, log *applogger.Logger) *risk.Validator {
	return risk.NewValidator(cfg.Risk, risk.NewLocalLedger(), log)
}

// ProvideSynthesizer creates the candidate-signal builder.
func ProvideSynthesizer(cfg *config.Config) *usecase.Synthesizer {
	return usecase.NewSynthesizer(cfg.Risk, cfg.Engine.ConfidenceFloor)
}

// ProvideEngine creates the pipeline orchestrator.
func ProvideEngine(
	cfg *config.Config,
	history domrepo.HistoryStore,
	pred domsvc.Predictor,
	synth *usecase.Synthesizer,
	validator *risk.Validator,
	cache dedup.Cache,
	store domrepo.SignalStore,
	pub domrepo.SignalPublisher,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.Engine {
	return usecase.NewEngine(usecase.EngineConfig{
		ModelVersion:       cfg.Engine.ModelVersion,
		BatchInterval:      cfg.Engine.BatchInterval,
		ScanRate:           cfg.Engine.ScanRate,
		Timeframes:         cfg.Engine.Timeframes,
		Watchlist:          cfg.Engine.Watchlist,
		SignalTTL:          cfg.Engine.SignalTTL,
		PublishMaxAttempts: cfg.Engine.Publish.MaxAttempts,
		PublishBackoffMin:  cfg.Engine.Publish.BackoffMin,
		PublishTimeout:     cfg.Engine.Publish.Timeout,
	}, history, pred, synth, validator, cache, store, pub, m, log)
}

// ProvideMarketDataHandler registers the handler for the market-data topic.
func ProvideMarketDataHandler(cfg *config.Config, engine *usecase.Engine, m domrepo.Metrics) pkgkafka.MessageHandler {
	return usecase.NewMarketDataHandler(cfg.Kafka.MarketDataTopic, engine, m)
}

// ProvideStatusHandler creates the HTTP handler for /health and /status.
func ProvideStatusHandler(log *applogger.Logger, engine *usecase.Engine, store domrepo.SignalStore) xhttp.Handler {
	return api.NewStatusHandler(log, engine, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	engine *usecase.Engine,
	consumer *pkgkafka.Consumer,
	handler pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	pub domrepo.SignalPublisher,
	httpHandler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, log, engine, consumer, handler, chClient, pub, httpHandler)
}
