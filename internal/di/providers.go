package di

import (
	"context"
	"fmt"
	"net"
	"time"

	domrepo "TiltGuard/internal/domain/repository"
	domsvc "TiltGuard/internal/domain/service"
	"TiltGuard/internal/handler/api"
	internalrepo "TiltGuard/internal/repository"
	icache "TiltGuard/internal/service/cache"
	"TiltGuard/internal/service/marketdata"
	"TiltGuard/internal/service/statestore"
	"TiltGuard/internal/services/enrichment"
	"TiltGuard/internal/services/intervention"
	"TiltGuard/internal/services/profile"
	"TiltGuard/internal/services/tilt"
	"TiltGuard/internal/usecase"
	pkgcache "TiltGuard/pkg/cache"
	pkgch "TiltGuard/pkg/clickhouse"
	"TiltGuard/pkg/config"
	xhttp "TiltGuard/pkg/http"
	pkgkafka "TiltGuard/pkg/kafka"
	applogger "TiltGuard/pkg/logger"
	"TiltGuard/pkg/metrics"
	"TiltGuard/pkg/server"
	"TiltGuard/pkg/util"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures schema.
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

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		"CREATE TABLE IF NOT EXISTS " + db + ".behavioral_events (" +
			"ts DateTime64(3), trader_id String, ticker String, action String, " +
			"price Float64, quantity Float64, realized_pnl Nullable(Float64), note String" +
			") ENGINE=MergeTree ORDER BY (trader_id, ticker, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideTradeLedger creates the ClickHouse-backed trade event ledger.
func ProvideTradeLedger(chClient *pkgch.Client, cfg *config.Config) domrepo.TradeLedger {
	return internalrepo.NewClickHouseLedger(chClient.DB(), cfg.ClickHouse.Database+".behavioral_events")
}

// ProvideKafkaProducer creates a Kafka producer, nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
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

// ProvideAuditPublisher publishes intervention transitions to Kafka, or
// drops them when Kafka is disabled.
func ProvideAuditPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AuditPublisher {
	if producer == nil || cfg.Kafka.AuditTopic == "" {
		return internalrepo.NoopAuditPublisher{}
	}
	return internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.AuditTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer, nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
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

// ProvideEventsIngestHandler registers the trade-event ingest handler.
func ProvideEventsIngestHandler(ledger domrepo.TradeLedger, m domrepo.Metrics, cfg *config.Config) *usecase.EventsIngestHandler {
	return usecase.NewEventsIngestHandler(cfg.Kafka.EventsTopic, ledger, m)
}

// ProvideCacheBackend selects Redis or in-process memory for shared state.
func ProvideCacheBackend(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitAddr(cfg.Redis.Addr)
	return pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	return host, util.ParseIntDefault(portStr, 6379)
}

// ProvideStateStore creates the per-trader intervention state store.
func ProvideStateStore(backend pkgcache.Service) *statestore.Store {
	return statestore.New(backend)
}

// ProvideMarketTracker creates the live price tracker.
func ProvideMarketTracker() *marketdata.Tracker {
	return marketdata.NewTracker()
}

// ProvideMarketStream creates the WebSocket market stream, nil when
// streaming is disabled.
func ProvideMarketStream(cfg *config.Config) *marketdata.Stream {
	if !cfg.MarketData.StreamEnabled {
		return nil
	}
	return marketdata.NewStream(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.Symbols,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
	)
}

// ProvideMarketData creates the tracker-first snapshot provider.
func ProvideMarketData(tracker *marketdata.Tracker, cfg *config.Config) domsvc.MarketData {
	return marketdata.NewProvider(tracker, marketdata.NewHTTPClient(cfg))
}

// ProvideCollector creates the stream collector, nil when streaming is
// disabled.
func ProvideCollector(stream *marketdata.Stream, tracker *marketdata.Tracker, m domrepo.Metrics, logger *applogger.Logger) *marketdata.Collector {
	if stream == nil {
		return nil
	}
	return marketdata.NewCollector(stream, tracker, m, logger)
}

// ProvideScorer creates the tilt scorer from the engine policy.
func ProvideScorer(cfg *config.Config) domsvc.TiltScorer {
	return tilt.NewScorer(cfg.Engine)
}

// ProvideClassifier creates the intervention classifier.
func ProvideClassifier(cfg *config.Config) *intervention.Classifier {
	return intervention.New(cfg.Engine)
}

// ProvideProfiler creates the trader profiler.
func ProvideProfiler(cfg *config.Config) *profile.Profiler {
	return profile.New(cfg.Engine)
}

// ProvideEngine assembles the analysis engine, attaching enrichment only
// when a service URL is configured.
func ProvideEngine(
	ledger domrepo.TradeLedger,
	market domsvc.MarketData,
	scorer domsvc.TiltScorer,
	classifier *intervention.Classifier,
	profiler *profile.Profiler,
	states *statestore.Store,
	audit domrepo.AuditPublisher,
	m domrepo.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.Engine {
	var opts []usecase.EngineOption
	if cfg.Enrichment.BaseURL != "" {
		enricher := enrichment.NewHTTPEnricher(cfg, icache.NewTTLCache())
		opts = append(opts, usecase.WithEnrichment(enricher, cfg.Enrichment.Timeout))
	}
	return usecase.NewEngine(ledger, market, scorer, classifier, profiler, states, audit, m, logger, opts...)
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(logger *applogger.Logger, engine *usecase.Engine, ledger domrepo.TradeLedger) xhttp.Handler {
	return api.NewBehavioralEchoHandler(logger, engine, ledger)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	collector *marketdata.Collector,
	consumer *pkgkafka.Consumer,
	kh *usecase.EventsIngestHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, logger, handler, collector, consumer, kh, producer, chClient)
}
