package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/labstack/echo/v4"
	kafkago "github.com/segmentio/kafka-go"

	"CoinSense/internal/domain/repository"
	"CoinSense/internal/handler/api"
	"CoinSense/internal/handler/ws"
	mid "CoinSense/internal/middleware"
	internalrepo "CoinSense/internal/repository"
	"CoinSense/internal/service/codex"
	"CoinSense/internal/service/coingecko"
	"CoinSense/internal/service/rapidtwitter"
	"CoinSense/internal/service/ratelimit"
	"CoinSense/internal/service/upstream"
	"CoinSense/internal/services/decision"
	"CoinSense/internal/usecase"
	"CoinSense/pkg/cache"
	pkgch "CoinSense/pkg/clickhouse"
	"CoinSense/pkg/config"
	xhttp "CoinSense/pkg/http"
	pkgkafka "CoinSense/pkg/kafka"
	applogger "CoinSense/pkg/logger"
	"CoinSense/pkg/metrics"
	"CoinSense/pkg/server"
)

const serviceName = "coinsense"

// ProvideLogger builds the app logger and, when enabled, attaches the error collector.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.LogCollector.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.LogCollector.Interval,
			CountThreshold: cfg.LogCollector.Threshold,
			Topic:          cfg.LogCollector.Topic,
			Service:        serviceName,
			Publisher:      producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache builds the response cache for upstream calls.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return c, nil
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreate),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient connects only for the clickhouse recorder.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Recorder.Backend != config.RecorderClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewFromConfig(cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideDecisionStore creates the history table. Nil without ClickHouse.
func ProvideDecisionStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.DecisionStore, error) {
	if ch == nil {
		return nil, nil
	}
	store, err := internalrepo.NewClickHouseDecisionStore(ch.DB(), "", l)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ch.InitSchema(ctx, store.SchemaStatements()); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideDecisionPublisher is nil unless the kafka recorder is selected.
func ProvideDecisionPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.DecisionPublisher {
	if producer == nil || cfg.Recorder.Backend != config.RecorderKafka {
		return nil
	}
	return internalrepo.NewKafkaDecisionPublisher(producer, cfg.Recorder.Topic)
}

func ProvideDecisionRecorder(
	pub repository.DecisionPublisher,
	store repository.DecisionStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.DecisionRecorder {
	return usecase.NewDecisionRecorder(pub, store, m, cfg.Recorder.Backend)
}

// ProvideRecordPipeline buffers records between the decision flow and the recorder.
// Nil when recording is off.
func ProvideRecordPipeline(
	rec *usecase.DecisionRecorder,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *mid.RecordPipeline {
	if rec.Backend() == usecase.BackendNone {
		return nil
	}
	return mid.NewRecordPipeline(rec, m,
		mid.WithBufferSize(cfg.Recorder.BufferSize),
		mid.WithBatch(cfg.Recorder.BatchSize, cfg.Recorder.FlushInterval),
		mid.WithLogger(l),
	)
}

func upstreamOptions(l *applogger.Logger) []upstream.Option {
	return []upstream.Option{
		upstream.WithLogger(l),
		upstream.WithRetry(3, 250*time.Millisecond),
		upstream.WithBreaker(5, 30*time.Second),
	}
}

func ProvideMarketData(cfg *config.Config, c cache.Service, l *applogger.Logger) repository.MarketData {
	cg := cfg.CoinGecko
	return coingecko.New(coingecko.Config{
		APIKey:   cg.APIKey,
		Pro:      cg.Pro,
		BaseURL:  cg.BaseURL,
		Timeout:  cg.Timeout,
		RPS:      cg.RPS,
		Burst:    cg.Burst,
		ListTTL:  cg.ListTTL,
		PriceTTL: cg.PriceTTL,
	}, c, upstreamOptions(l)...)
}

func ProvideSocialFeed(cfg *config.Config, l *applogger.Logger) repository.SocialFeed {
	rt := cfg.RapidTwitter
	return rapidtwitter.New(rapidtwitter.Config{
		APIKey:  rt.APIKey,
		BaseURL: rt.BaseURL,
		Timeout: rt.Timeout,
		RPS:     rt.RPS,
		Limit:   rt.Limit,
	}, upstreamOptions(l)...)
}

func ProvideTokenFeed(cfg *config.Config, l *applogger.Logger) repository.TokenFeed {
	cx := cfg.Codex
	return codex.New(codex.Config{
		APIKey:   cx.APIKey,
		URL:      cx.URL,
		Networks: cx.Networks,
		Timeout:  cx.Timeout,
		RPS:      cx.RPS,
	}, upstreamOptions(l)...)
}

// ProvideEngine converts the yaml decision block into an engine.
func ProvideEngine(cfg *config.Config) (*decision.Engine, error) {
	return BuildEngine(cfg.Decision)
}

// BuildEngine is shared with the CLI, which has no DI graph for one-shot commands.
func BuildEngine(dc config.DecisionConfig) (*decision.Engine, error) {
	opts := []decision.Option{
		decision.WithRankCeiling(dc.RankCeiling),
		decision.WithCeilings(dc.MarketCapCeiling, dc.VolumeCeiling),
		decision.WithClampTrending(dc.ClampTrending),
	}
	if dc.HasWeights() {
		opts = append(opts, decision.WithWeights(decision.Weights{
			Trending:  dc.Weights.Trending,
			MarketCap: dc.Weights.MarketCap,
			Liquidity: dc.Weights.Liquidity,
			Stability: dc.Weights.Stability,
		}))
	}
	t := dc.Thresholds
	if decision.PolicyKind(dc.Policy) == decision.PolicyDual {
		opts = append(opts, decision.WithDualThreshold(t.High, t.StabilityFloor, t.StabilityCeiling))
	} else {
		opts = append(opts, decision.WithSingleThreshold(t.Buy))
	}
	engineCfg, err := decision.NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	fallback := dc.DefaultPersona
	if fallback == "" {
		fallback = decision.DefaultPersona
	}
	specs := decision.WithRankCeilings(decision.BuiltinPersonaSpecs(), dc.Personas)
	personas, err := decision.NewPersonas(fallback, specs...)
	if err != nil {
		return nil, err
	}

	var src rand.Source
	if dc.Seed != 0 {
		src = rand.NewSource(dc.Seed)
	}
	return decision.NewEngine(engineCfg, personas, decision.NewExplainer(personas, src))
}

func ProvideCoinResolver(market repository.MarketData) *usecase.CoinResolver {
	return usecase.NewCoinResolver(market)
}

func ProvideMetricsAssembler(market repository.MarketData, cfg *config.Config) *usecase.MetricsAssembler {
	return usecase.NewMetricsAssembler(market, cfg.Decision.RankSource)
}

func ProvideDecisionUseCase(
	resolver *usecase.CoinResolver,
	assembler *usecase.MetricsAssembler,
	engine *decision.Engine,
	pipe *mid.RecordPipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.DecisionUseCase {
	// a nil pipeline must stay a nil interface
	var rec usecase.Recorder
	if pipe != nil {
		rec = pipe
	}
	return usecase.NewDecisionUseCase(resolver, assembler, engine, rec, m, l)
}

func ProvideMarketUseCase(market repository.MarketData, resolver *usecase.CoinResolver) *usecase.MarketUseCase {
	return usecase.NewMarketUseCase(market, resolver)
}

func ProvideAlphaUseCase(feed repository.SocialFeed) *usecase.AlphaUseCase {
	return usecase.NewAlphaUseCase(feed)
}

func ProvideBoostedTokensUseCase(feed repository.TokenFeed, cfg *config.Config) *usecase.BoostedTokensUseCase {
	return usecase.NewBoostedTokensUseCase(feed, cfg.Codex.Networks)
}

func ProvideChatRouter(
	d *usecase.DecisionUseCase,
	mk *usecase.MarketUseCase,
	a *usecase.AlphaUseCase,
	b *usecase.BoostedTokensUseCase,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ChatRouter {
	return usecase.NewChatRouter(d, mk, a, b, m, l)
}

// ProvideKafkaConsumer creates the chat request consumer. Nil when the chat topic is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Chat.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerStartOffset(c.StartOffset),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.CorrelationHook,
		pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, km kafkago.Message, _ []byte, err error) {
				l.Warn("chat request failed",
					applogger.String("topic", topic),
					applogger.Int("partition", km.Partition),
					applogger.Int64("offset", km.Offset),
					applogger.Error(err))
			},
		},
	))
	return consumer, nil
}

// ProvideKafkaChatHandler answers chat requests from Kafka on the reply topic.
func ProvideKafkaChatHandler(
	cfg *config.Config,
	router *usecase.ChatRouter,
	producer *pkgkafka.Producer,
	m repository.Metrics,
) pkgkafka.MessageHandler {
	if !cfg.Kafka.Chat.Enabled || producer == nil {
		return nil
	}
	return usecase.NewKafkaChatHandler(cfg.Kafka.Chat.RequestTopic, cfg.Kafka.Chat.ReplyTopic, router, producer, m)
}

func ProvideAPIHandler(
	cfg *config.Config,
	l *applogger.Logger,
	router *usecase.ChatRouter,
	d *usecase.DecisionUseCase,
	rec *usecase.DecisionRecorder,
	mk *usecase.MarketUseCase,
	a *usecase.AlphaUseCase,
	b *usecase.BoostedTokensUseCase,
) *api.CoinSenseEchoHandler {
	svc := api.Services{
		Chat:     router,
		Decision: d,
		Market:   mk,
		Alpha:    a,
		Boosted:  b,
	}
	if rec.Backend() == usecase.BackendClickHouse {
		svc.History = rec
	}

	var mw []echo.MiddlewareFunc
	if rl := cfg.Server.RateLimit; rl.Enabled {
		mw = append(mw, ratelimit.Middleware(ratelimit.New(rl.RPS, rl.Burst), ratelimit.RealIP))
	}
	return api.NewCoinSenseEchoHandler(l, svc, mw...)
}

func ProvideWSHandler(router *usecase.ChatRouter, l *applogger.Logger) *ws.ChatHandler {
	return ws.NewChatHandler(router, l)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, apiH *api.CoinSenseEchoHandler, wsH *ws.ChatHandler) *xhttp.Server {
	s := cfg.Server
	return xhttp.NewServer(l, []xhttp.Handler{apiH, wsH},
		xhttp.WithHost(s.Host),
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithSlowRequest(s.SlowRequest),
		xhttp.WithCORS(s.CORS),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	pipe *mid.RecordPipeline,
	rec *usecase.DecisionRecorder,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, server.Deps{
		HTTPServer: srv,
		Consumer:   consumer,
		Handler:    kh,
		Pipeline:   pipe,
		Recorder:   rec,
		Producer:   producer,
		ClickHouse: ch,
		Cache:      c,
	})
}
