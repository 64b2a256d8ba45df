package di

import (
	"context"
	"fmt"
	"time"

	"RegimeCast/internal/domain/repository"
	"RegimeCast/internal/engine"
	"RegimeCast/internal/handler/api"
	"RegimeCast/internal/library"
	internalrepo "RegimeCast/internal/repository"
	"RegimeCast/internal/service/datasource"
	"RegimeCast/internal/usecase"
	"RegimeCast/pkg/cache"
	pkgch "RegimeCast/pkg/clickhouse"
	"RegimeCast/pkg/config"
	xhttp "RegimeCast/pkg/http"
	pkgkafka "RegimeCast/pkg/kafka"
	applogger "RegimeCast/pkg/logger"
	"RegimeCast/pkg/metrics"
	"RegimeCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry builds the function registry from the frozen library.
// Every registration runs the smoke probe, so a broken library build fails
// the process at startup rather than at request time.
func ProvideRegistry() (*engine.Registry, error) {
	reg := engine.NewRegistry()
	for id, fn := range library.Functions() {
		if err := reg.Register(id, fn); err != nil {
			return nil, fmt.Errorf("register %s: %w", id, err)
		}
	}
	return reg, nil
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCache creates the key-value cache: Redis when enabled, otherwise an
// in-process store.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryKV(), nil
	}
	kv, err := cache.NewRedisKV(
		cache.WithAddr(cfg.Redis.Addr),
		cache.WithPassword(cfg.Redis.Password),
		cache.WithDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return kv, nil
}

// ProvideDataSource selects the configured series backend and wraps it in the
// read-through cache.
func ProvideDataSource(cfg *config.Config, chClient *pkgch.Client, kv cache.Service, l *applogger.Logger) (repository.DataSource, error) {
	var inner repository.DataSource
	switch cfg.Data.Source {
	case "clickhouse":
		if chClient == nil {
			return nil, fmt.Errorf("data.source=clickhouse but clickhouse is disabled")
		}
		src := internalrepo.NewCHCandleSource(chClient, cfg.Data.Limit)
		src.SetLogger(l)
		inner = src
	default:
		inner = datasource.NewSynthetic(cfg.Data.Limit)
	}

	cached := datasource.NewCached(inner, kv, cfg.Data.CacheTTL, cfg.Data.LockTTL)
	cached.SetLogger(l)
	return cached, nil
}

// ProvideReceiptSink fans receipts out to every enabled backend.
func ProvideReceiptSink(cfg *config.Config, chClient *pkgch.Client, producer *pkgkafka.Producer, l *applogger.Logger) repository.ReceiptSink {
	var sinks []repository.ReceiptSink
	if chClient != nil {
		store := internalrepo.NewCHReceiptStore(chClient)
		store.SetLogger(l)
		sinks = append(sinks, store)
	}
	if producer != nil {
		pub := internalrepo.NewKafkaReceiptPublisher(producer, cfg.Kafka.ReceiptTopic)
		pub.SetLogger(l)
		sinks = append(sinks, pub)
	}
	switch len(sinks) {
	case 0:
		return internalrepo.NoopSink{}
	case 1:
		return sinks[0]
	default:
		return internalrepo.NewMultiSink(sinks...)
	}
}

// ProvideInterpreter creates the plan interpreter.
func ProvideInterpreter(cfg *config.Config, reg *engine.Registry, source repository.DataSource, m repository.Metrics, l *applogger.Logger) *engine.Interpreter {
	return engine.NewInterpreter(reg, source, library.Version,
		engine.WithContractRetries(cfg.Engine.ContractRetries),
		engine.WithDispatchTimeout(cfg.Engine.DispatchTimeout),
		engine.WithStabilityDefaults(engine.StabilityConfig{
			MaxIterations:     cfg.Engine.MaxIterations,
			ThresholdFraction: cfg.Engine.ThresholdFraction,
		}),
		engine.WithMetrics(m),
		engine.WithLogger(l),
	)
}

// ProvidePlanExecutor creates the plan execution use case.
func ProvidePlanExecutor(interp *engine.Interpreter, sink repository.ReceiptSink, l *applogger.Logger) *usecase.PlanExecutor {
	uc := usecase.NewPlanExecutor(interp, sink)
	uc.SetLogger(l)
	return uc
}

// ProvideHTTPHandler assembles the API route registrar.
func ProvideHTTPHandler(l *applogger.Logger, executor *usecase.PlanExecutor, reg *engine.Registry) xhttp.Handler {
	plans := api.NewPlansEchoHandler(l, executor, reg, library.Version)
	stream := api.NewStreamEchoHandler(l, executor)
	return api.NewRouter(plans, stream)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
) *server.App {
	return server.New(cfg, l, handler, chClient, producer)
}
