package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"podium/internal/audit"
	"podium/internal/auth/adapters"
	authhandler "podium/internal/auth/handler"
	authmetrics "podium/internal/auth/metrics"
	"podium/internal/auth/service"
	"podium/internal/auth/session"
	"podium/internal/auth/state"
	"podium/internal/auth/store/authcontext"
	"podium/internal/auth/workers/cleanup"
	"podium/internal/platform/config"
	"podium/internal/platform/database"
	"podium/internal/platform/health"
	"podium/internal/platform/kafka"
	"podium/internal/platform/kafka/producer"
	"podium/internal/platform/logger"
	platformmetrics "podium/internal/platform/metrics"
	"podium/internal/platform/redis"
	"podium/internal/platform/tracer"
	httptransport "podium/internal/transport/http"
	"podium/migrations"
)

// main wires dependencies and owns the process lifecycle. Behaviour lives in
// the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing podium auth",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"storage", cfg.StorageBackend,
	)

	authMetrics := authmetrics.New()
	tr := tracer.NewOTel()
	checks := health.New(cfg.Environment, log)

	g, gctx := errgroup.WithContext(ctx)

	storage, closeStorage, err := buildStorage(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeStorage()

	store := authcontext.New(storage,
		authcontext.WithDefaultTTL(cfg.ContextTTL),
		authcontext.WithLogger(log),
		authcontext.WithObserver(authMetrics),
	)
	states := state.NewService(store, state.WithTTL(cfg.StateTTL))

	creds := buildCredentialStore(cfg, log)
	checks.RegisterCheck("credential_store", func(context.Context) error {
		if creds.CircuitOpen() {
			return errors.New("credential store circuit open")
		}
		return nil
	})

	publisher, closeAudit := buildAuditPublisher(ctx, cfg, log, checks)
	defer closeAudit()

	svc := service.New(creds, store, states,
		service.Config{
			PublicURL:  cfg.PublicURL,
			Providers:  cfg.OAuthConfigs(),
			ContextTTL: cfg.ContextTTL,
		},
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(authMetrics),
		service.WithTracer(tr),
	)

	sessions := session.NewManager(cfg.SessionSigningKey,
		session.WithTTL(cfg.SessionTTL),
		session.WithSecureCookies(cfg.SecureCookies),
		session.WithLogger(log),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Auth:           authhandler.New(svc, sessions, log),
		Sessions:       sessions,
		DeepLinks:      svc,
		DeepLinkStats:  authMetrics,
		Health:         checks,
		HTTPMetrics:    platformmetrics.NewHTTP(),
		MetricsHandler: promhttp.Handler(),
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	sweeper, err := cleanup.New(store,
		cleanup.WithCleanupInterval(cfg.SweepInterval),
		cleanup.WithCleanupLogger(log),
		cleanup.WithDurationObserver(authMetrics),
		cleanup.WithTracer(tr),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCanceled(sweeper.Start(gctx))
	})

	return g.Wait()
}

// buildStorage selects the auth context backend and registers its probe.
func buildStorage(ctx context.Context, cfg config.Server, log *slog.Logger, checks *health.Handler) (authcontext.Storage, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		checks.RegisterCheck("redis", client.Health)
		if err := client.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			log.Warn("redis pool metrics not registered", "error", err)
		}
		log.Info("auth context stored in redis")
		return authcontext.NewRedisStorage(client.Client), func() { _ = client.Close() }, nil

	case config.StoragePostgres:
		pool, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Migrate(ctx, migrations.FS); err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		checks.RegisterCheck("postgres", pool.Health)
		log.Info("auth context stored in postgres")
		return authcontext.NewPostgresStorage(pool.DB()), func() { _ = pool.Close() }, nil

	default:
		log.Warn("auth context stored in memory; entries are lost on restart")
		return authcontext.NewInMemoryStorage(), func() {}, nil
	}
}

func buildCredentialStore(cfg config.Server, log *slog.Logger) *adapters.ResilientCredentialStore {
	var delegate service.CredentialStore
	if cfg.GoTrue.URL != "" {
		delegate = adapters.NewGoTrueClient(adapters.GoTrueConfig{
			BaseURL:   cfg.GoTrue.URL,
			APIKey:    cfg.GoTrue.APIKey,
			Timeout:   cfg.GoTrue.Timeout,
			Providers: cfg.OAuthConfigs(),
		})
	} else {
		log.Warn("GOTRUE_URL not set; using the in-memory credential store")
		delegate = adapters.NewInMemoryCredentialStore(adapters.WithAutoConfirm(true))
	}
	return adapters.NewResilientCredentialStore(delegate, log)
}

// buildAuditPublisher sends audit events to Kafka when brokers are
// configured and otherwise keeps only the most recent ones in memory.
func buildAuditPublisher(ctx context.Context, cfg config.Server, log *slog.Logger, checks *health.Handler) (*audit.Publisher, func()) {
	var sink audit.Store = audit.NewBoundedInMemoryStore(audit.DefaultMemoryCapacity)
	closeProducer := func() {}

	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		p, err := producer.New(producer.DefaultConfig(strings.Join(cfg.Kafka.Brokers, ",")), log)
		if err != nil {
			log.Error("kafka producer unavailable; audit events stay in memory", "error", err)
		} else {
			sink = audit.NewKafkaStore(p, cfg.Kafka.Topic)
			closeProducer = func() { _ = p.Close() }
			checks.RegisterCheck("kafka", kafka.NewHealthChecker(cfg.Kafka.Brokers).Check)
		}
	}

	publisher := audit.NewPublisher(sink,
		audit.WithAsyncBuffer(1024),
		audit.WithPublisherLogger(log),
	)
	return publisher, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := publisher.Close(ctx); err != nil {
			log.Warn("audit queue not fully drained", "error", err, "dropped", publisher.Dropped())
		}
		closeProducer()
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
