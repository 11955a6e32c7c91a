package agent

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	rtagent "github.com/sbilibin2017/gophrt/internal/agent"
	"github.com/sbilibin2017/gophrt/internal/configs/db"
	"github.com/sbilibin2017/gophrt/internal/configs/hasher"
	"github.com/sbilibin2017/gophrt/internal/configs/tlsconfig"
	httpClient "github.com/sbilibin2017/gophrt/internal/configs/transport/http"
	httpFacades "github.com/sbilibin2017/gophrt/internal/facades/http"
	httpHandlers "github.com/sbilibin2017/gophrt/internal/handlers/http"
	httpMiddlewares "github.com/sbilibin2017/gophrt/internal/middlewares/http"
	"github.com/sbilibin2017/gophrt/internal/models"
	dbRepo "github.com/sbilibin2017/gophrt/internal/repositories/db"
	fileRepo "github.com/sbilibin2017/gophrt/internal/repositories/file"
	memoryRepo "github.com/sbilibin2017/gophrt/internal/repositories/memory"
	redisRepo "github.com/sbilibin2017/gophrt/internal/repositories/redis"
	"github.com/sbilibin2017/gophrt/internal/runner"
	"github.com/sbilibin2017/gophrt/internal/services"
	"github.com/sbilibin2017/gophrt/internal/telemetry"
	"github.com/sbilibin2017/gophrt/internal/worker"
)

const (
	userAgent              = "gophrt"
	retentionCheckInterval = time.Minute
	readHeaderTimeout      = 5 * time.Second
)

// storage is what every sample repository provides.
type storage interface {
	services.Writer
	services.Reader
	worker.Deleter
}

// app is the wired agent, ready to run.
type app struct {
	samples *services.SampleService
	runner  *runner.Runner
	cleanup func()
}

// Run wires every component from cfg and runs them until ctx is done.
func Run(ctx context.Context, cfg *Config, logger *zap.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return a.run(ctx)
}

func (a *app) run(ctx context.Context) error {
	defer a.cleanup()
	return a.runner.Run(ctx)
}

func newApp(ctx context.Context, cfg *Config, logger *zap.Logger) (*app, error) {
	store, pinger, cleanup, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sources, err := newSources(cfg, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	samples := services.NewSampleService(store, store, pinger)
	metrics := telemetry.New()

	poller := rtagent.New(samples, sources,
		rtagent.WithLogger(logger.Named("agent")),
		rtagent.WithRecorder(metrics),
		rtagent.WithPollInterval(Seconds(cfg.PollInterval)),
		rtagent.WithReportInterval(Seconds(cfg.ReportInterval)),
	)

	r := runner.NewRunner(runner.WithLogger(logger.Named("runner")))
	r.AddWorker("agent", poller)
	r.AddWorker("retention", worker.NewRetentionWorker(
		store,
		Seconds(cfg.Retention),
		retentionCheckInterval,
		logger.Named("retention"),
	))

	if cfg.Address != "" {
		server, err := newServer(cfg, samples, metrics, logger)
		if err != nil {
			cleanup()
			return nil, err
		}
		r.AddHTTPServer("api", server)
	}

	return &app{samples: samples, runner: r, cleanup: cleanup}, nil
}

// newStorage picks the first configured backend: database, Redis, file, memory.
func newStorage(ctx context.Context, cfg *Config, logger *zap.Logger) (storage, services.Pinger, func(), error) {
	switch {
	case cfg.DatabaseDSN != "":
		maxOpen := 10
		if cfg.DatabaseDriver == db.DriverSQLite {
			// sqlite allows a single writer
			maxOpen = 1
		}
		conn, err := db.New(cfg.DatabaseDriver, cfg.DatabaseDSN,
			db.WithMaxOpenConns(maxOpen),
			db.WithMaxIdleConns(5),
			db.WithConnMaxLifetime(30*time.Minute),
		)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(conn, cfg.MigrationsDir); err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("using database storage", zap.String("driver", cfg.DatabaseDriver))
		repo := dbRepo.NewSampleRepository(conn)
		return repo, repo, func() { conn.Close() }, nil

	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("using redis storage", zap.String("addr", cfg.RedisAddr))
		repo := redisRepo.NewSampleRepository(client, "")
		return repo, repo, func() { client.Close() }, nil

	case cfg.FileStoragePath != "":
		logger.Info("using file storage", zap.String("path", cfg.FileStoragePath))
		return fileRepo.NewSampleRepository(cfg.FileStoragePath), nil, func() {}, nil

	default:
		logger.Info("using memory storage")
		return memoryRepo.NewSampleRepository(), nil, func() {}, nil
	}
}

func newSources(cfg *Config, logger *zap.Logger) ([]rtagent.Source, error) {
	opts := transportOptions(cfg, logger)

	var sources []rtagent.Source

	if cfg.HasKind(models.KindService) {
		client, err := httpFacades.NewServiceClientWithEndpoint(
			endpoint(cfg.EndpointBase, "channel", httpFacades.ServiceEndpoint),
			cfg.Key, cfg.ServiceID, opts...,
		)
		if err != nil {
			return nil, err
		}
		sources = append(sources, rtagent.NewServiceSource(client))
	}

	if cfg.HasKind(models.KindOrigin) {
		client, err := httpFacades.NewOriginClientWithEndpoint(
			endpoint(cfg.EndpointBase, "origins", httpFacades.OriginEndpoint),
			cfg.Key, cfg.ServiceID, opts...,
		)
		if err != nil {
			return nil, err
		}
		sources = append(sources, rtagent.NewOriginSource(client))
	}

	return sources, nil
}

func transportOptions(cfg *Config, logger *zap.Logger) []httpClient.Opt {
	opts := []httpClient.Opt{
		httpClient.WithUserAgent(userAgent),
		httpClient.WithLogger(logger.Named("transport").Sugar()),
		httpClient.WithTimeout(Seconds(cfg.RequestTimeout)),
		httpClient.WithProxy(cfg.Proxy),
	}

	if cfg.RetryCount > 0 {
		opts = append(opts, httpClient.WithRetryPolicy(httpClient.RetryPolicy{
			Count:   cfg.RetryCount,
			Wait:    500 * time.Millisecond,
			MaxWait: 5 * time.Second,
		}))
	}

	var tlsOpts []tlsconfig.Opt
	if cfg.CACert != "" {
		tlsOpts = append(tlsOpts, tlsconfig.WithCACertPath(cfg.CACert))
	}
	if cfg.ClientCert != "" || cfg.ClientKey != "" {
		tlsOpts = append(tlsOpts, tlsconfig.WithClientKeyPair(cfg.ClientCert, cfg.ClientKey))
	}
	if len(tlsOpts) > 0 {
		opts = append(opts, httpClient.WithTLS(tlsOpts...))
	}

	return opts
}

// endpoint joins base and resource, or returns fallback when base is empty.
func endpoint(base, resource, fallback string) string {
	if base == "" {
		return fallback
	}
	return strings.TrimRight(base, "/") + "/" + resource
}

func newServer(
	cfg *Config,
	samples *services.SampleService,
	metrics *telemetry.Client,
	logger *zap.Logger,
) (*http.Server, error) {
	subnet, err := cfg.Subnet()
	if err != nil {
		return nil, err
	}

	middlewares := []func(http.Handler) http.Handler{
		httpMiddlewares.LoggingMiddleware(logger.Named("http")),
		httpMiddlewares.TrustedSubnetMiddleware(subnet),
		httpMiddlewares.GzipMiddleware,
	}
	if h := hasher.New(cfg.SignKey); h != nil {
		middlewares = append(middlewares, httpMiddlewares.SignatureMiddleware(h, hasher.Header))
	}

	router := httpHandlers.NewRouter(httpHandlers.RouterConfig{
		ServiceID:   cfg.ServiceID,
		Samples:     samples,
		Metrics:     metrics.Handler(),
		Middlewares: middlewares,
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}, nil
}
