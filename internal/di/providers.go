package di

import (
	"context"
	"fmt"
	"time"

	"NotifyInvest/internal/domain/repository"
	"NotifyInvest/internal/handler/api"
	internalrepo "NotifyInvest/internal/repository"
	"NotifyInvest/internal/service/expo"
	"NotifyInvest/internal/usecase"
	pkgcache "NotifyInvest/pkg/cache"
	pkgch "NotifyInvest/pkg/clickhouse"
	"NotifyInvest/pkg/config"
	xhttp "NotifyInvest/pkg/http"
	pkgkafka "NotifyInvest/pkg/kafka"
	applogger "NotifyInvest/pkg/logger"
	"NotifyInvest/pkg/metrics"
	"NotifyInvest/pkg/server"
)

// ProvideLogger creates the application logger. When a collect topic is
// configured and a producer exists, aggregated logs are shipped to Kafka.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	if cfg.Logging.CollectTopic != "" && producer != nil {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Logging.CollectTopic,
			Publisher:      &kafkaLogPublisher{producer: producer},
		})
	}
	return log, nil
}

// kafkaLogPublisher adapts the Kafka producer to the collector's Publisher.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p *kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRedisCache creates the shared Redis client wrapper. Returns nil
// when the store backend is memory; downstream providers fall back to
// in-process implementations.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if cfg.Store.Type != "redis" {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Store.Redis.Host),
		pkgcache.WithRedisPort(cfg.Store.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Store.Redis.Password),
		pkgcache.WithRedisDB(cfg.Store.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Store.Redis.Prefix),
		pkgcache.WithRedisPool(cfg.Store.Redis.PoolSize, cfg.Store.Redis.MinIdleConns, cfg.Store.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideRegistry creates the device registry on the configured store.
func ProvideRegistry(cfg *config.Config, rc *pkgcache.RedisCache) repository.DeviceRegistry {
	if rc != nil {
		return internalrepo.NewRedisRegistry(rc.Client(), cfg.Store.Redis.Prefix)
	}
	return internalrepo.NewMemoryRegistry()
}

// ProvidePrefs creates the preference store on the configured store.
func ProvidePrefs(cfg *config.Config, rc *pkgcache.RedisCache) repository.PreferenceStore {
	if rc != nil {
		return internalrepo.NewRedisPrefs(rc.Client(), cfg.Store.Redis.Prefix)
	}
	return internalrepo.NewMemoryPrefs()
}

// ProvideSignalsCache creates the short-TTL response cache for the
// signals feed, backed by Redis when available.
func ProvideSignalsCache(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc != nil {
		return rc
	}
	return pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(time.Minute))
}

// ProvideLedger creates the signal ledger and initializes its schema.
func ProvideLedger(cfg *config.Config) (repository.SignalLedger, error) {
	if cfg.Ledger.Type != "clickhouse" {
		return internalrepo.NewMemoryLedger(), nil
	}

	ch := cfg.Ledger.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.Ledger.Table
	if err := client.InitSchema(ctx, internalrepo.Schema(ch.Database, table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	ledger := internalrepo.NewClickHouseLedger(client, ch.Database+"."+table)
	if err := ledger.Init(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ledger init: %w", err)
	}
	return ledger, nil
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when nothing
// needs the broker.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Ingest.Backend != "kafka" && cfg.Logging.CollectTopic == "" {
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

// ProvideKafkaConsumer creates a Kafka consumer when signals arrive over
// the broker.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Ingest.Backend != "kafka" {
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

// ProvidePusher creates the Expo push gateway client.
func ProvidePusher(cfg *config.Config, log *applogger.Logger) repository.Pusher {
	return expo.NewClient(log,
		expo.WithURL(cfg.Expo.URL),
		expo.WithTimeout(cfg.Expo.Timeout),
		expo.WithRateLimit(cfg.Expo.RatePerSec, int(cfg.Expo.Burst)),
	)
}

// ProvideDispatcher creates the matching and fan-out engine.
func ProvideDispatcher(
	registry repository.DeviceRegistry,
	prefs repository.PreferenceStore,
	ledger repository.SignalLedger,
	pusher repository.Pusher,
	m repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Dispatcher {
	return usecase.NewDispatcher(registry, prefs, ledger, pusher, m, log,
		usecase.WithWorkers(cfg.Dispatch.Workers),
		usecase.WithPrefCacheTTL(cfg.Dispatch.PrefCacheTTL),
	)
}

// ProvideIngestor selects the ingest path for incoming signals.
func ProvideIngestor(cfg *config.Config, dispatcher *usecase.Dispatcher, producer *pkgkafka.Producer) repository.Ingestor {
	if cfg.Ingest.Backend == "kafka" && producer != nil {
		return usecase.NewKafkaIngestor(producer, cfg.Kafka.Topic)
	}
	return usecase.NewDirectIngestor(dispatcher)
}

// ProvideSignalHandler registers the consumer-side handler for the
// ingest topic.
func ProvideSignalHandler(cfg *config.Config, dispatcher *usecase.Dispatcher, log *applogger.Logger) pkgkafka.MessageHandler {
	if cfg.Ingest.Backend != "kafka" {
		return nil
	}
	return usecase.NewSignalHandler(cfg.Kafka.Topic, dispatcher, log)
}

// ProvideAPIHandler creates the Echo route handler.
func ProvideAPIHandler(
	log *applogger.Logger,
	registry repository.DeviceRegistry,
	prefs repository.PreferenceStore,
	ledger repository.SignalLedger,
	ingestor repository.Ingestor,
	dispatcher *usecase.Dispatcher,
	signalsCache pkgcache.Service,
) xhttp.Handler {
	h := api.NewNotifyHandler(log, registry, prefs, ledger, ingestor, dispatcher)
	h.SetCache(signalsCache)
	return h
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	dispatcher *usecase.Dispatcher,
	registry repository.DeviceRegistry,
	ledger repository.SignalLedger,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	httpHandler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, dispatcher, registry, ledger, consumer, kh, producer, httpHandler)
}
