package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Salisuili/rest-frontend/internal/api"
	"github.com/Salisuili/rest-frontend/internal/cart"
	"github.com/Salisuili/rest-frontend/internal/config"
	"github.com/Salisuili/rest-frontend/internal/delivery"
	"github.com/Salisuili/rest-frontend/internal/domain"
	"github.com/Salisuili/rest-frontend/internal/event"
	handler "github.com/Salisuili/rest-frontend/internal/handler/http"
	"github.com/Salisuili/rest-frontend/internal/session"
	"github.com/Salisuili/rest-frontend/internal/storage"
	"github.com/Salisuili/rest-frontend/internal/storage/file"
	"github.com/Salisuili/rest-frontend/internal/storage/postgres"
	redisstore "github.com/Salisuili/rest-frontend/internal/storage/redis"
	"github.com/Salisuili/rest-frontend/internal/view"
	"github.com/Salisuili/rest-frontend/pkg/database"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
	"github.com/Salisuili/rest-frontend/pkg/health"
	"github.com/Salisuili/rest-frontend/pkg/httpclient"
	pkgkafka "github.com/Salisuili/rest-frontend/pkg/kafka"
	"github.com/Salisuili/rest-frontend/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies of the storefront client.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	state          storage.Store
	producer       *pkgkafka.Producer
	events         event.Publisher
	client         *api.Client
	session        *session.Store
	cart           *cart.Store
	view           *view.View
	health         *health.Handler
	tracerShutdown func(context.Context) error
}

// New creates the application, connecting to the configured state backend.
// Screens are written to out.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(initCtx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       true,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	state, err := openStorage(initCtx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		state:          state,
		events:         event.Noop{},
		tracerShutdown: tracerShutdown,
	}

	if cfg.KafkaEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.events = event.NewProducer(a.producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.client = api.New(cfg.APIBaseURL, newDoer(cfg, logger), logger)
	a.session = session.New(a.client.Auth, state, logger)
	a.client.UseTokens(a.session)
	a.cart = cart.New(state, a.events, logger)
	a.session.Subscribe(func(s domain.Session) {
		if err := a.cart.Attach(ctx, s); err != nil {
			logger.Warn("failed to load saved cart", slog.String("error", err.Error()))
		}
	})

	a.view = view.New(view.Deps{
		Session:        a.session,
		Cart:           a.cart,
		API:            a.client,
		Policy:         delivery.FromConfig(cfg),
		Events:         a.events,
		SearchDebounce: cfg.SearchDebounce(),
		Out:            out,
		Logger:         logger,
	})

	a.health = health.NewHandler()
	a.health.Register("storage", state.Ping)
	a.health.Register("api", func(ctx context.Context) error {
		_, err := a.client.Menu.Categories(ctx)
		return err
	})
	if a.producer != nil {
		a.health.Register("kafka", a.producer.Ping)
	}

	return a, nil
}

func newDoer(cfg *config.Config, logger *slog.Logger) httpclient.Doer {
	hc := httpclient.Config{
		Timeout:         cfg.APITimeout(),
		MaxConnsPerHost: httpclient.DefaultConfig().MaxConnsPerHost,
	}
	var doer httpclient.Doer = httpclient.New(hc)
	if cfg.APIRateLimitRPS > 0 {
		doer = httpclient.NewRateLimitedClient(doer, cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	}
	if !cfg.APICircuitBreaker {
		return doer
	}
	return httpclient.NewCircuitBreakerClient(doer, httpclient.CircuitBreakerConfig{
		Name:         "backend-api",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBIntervalSec) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeoutSec) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}, logger)
}

// openStorage connects the configured client-state backend.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil

	case config.StorageRedis:
		rc := database.DefaultRedisConfig()
		rc.Host = cfg.RedisHost
		rc.Port = cfg.RedisPort
		rc.Password = cfg.RedisPassword
		rc.DB = cfg.RedisDB
		client, err := database.NewRedisClient(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis", slog.String("addr", rc.Addr()))
		return redisstore.New(client, cfg.StateTTL()), nil

	case config.StoragePostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.PostgresHost
		pgCfg.Port = cfg.PostgresPort
		pgCfg.User = cfg.PostgresUser
		pgCfg.Password = cfg.PostgresPassword
		pgCfg.DBName = cfg.PostgresDB
		pgCfg.SSLMode = cfg.PostgresSSLMode
		pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
		}
		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return postgres.New(pool, cfg.StateTTL(), logger, pool.Close), nil

	default:
		s, err := file.New(cfg.StateFile)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		return s, nil
	}
}

// Run restores the session and executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	a.session.Restore(ctx)
	return a.view.Run(ctx, args)
}

// Shell restores the session and runs the interactive shell, serving the
// ops endpoints alongside it when configured.
func (a *App) Shell(ctx context.Context, in io.Reader) error {
	if a.cfg.OpsHTTPPort > 0 {
		router := handler.NewRouter(a.health, a.logger, a.cfg.OpsPprofCIDRs)
		srv := handler.NewServer(fmt.Sprintf(":%d", a.cfg.OpsHTTPPort), router, a.logger)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("ops server shutdown error", slog.String("error", err.Error()))
			}
		}()
	}

	a.session.Restore(ctx)
	return a.view.Shell(ctx, in)
}

// Close releases all components in order: background view work, tracer,
// Kafka producer, then the state backend.
func (a *App) Close() error {
	var errs []error

	a.view.Close()

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.state.Close(); err != nil {
		a.logger.Error("state store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Doctor runs the health checks once and writes a report. It fails when a
// check is down.
func (a *App) Doctor(ctx context.Context, w io.Writer) error {
	res := a.health.Check(ctx)
	for _, name := range a.health.Names() {
		c := res.Checks[name]
		line := fmt.Sprintf("%-8s %-4s %s", name, c.Status, c.Latency)
		if c.Error != "" {
			line += "  " + c.Error
		}
		fmt.Fprintln(w, line)
	}
	if res.Status != health.StatusUp {
		return apperrors.FromStatus(http.StatusServiceUnavailable, "UNHEALTHY", "One or more checks failed.")
	}
	return nil
}
