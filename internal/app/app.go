// Package app wires configuration, infrastructure and interfaces into a
// running viewer server.  cmd/apiserver and `vf serve` both start here.
package app

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/application/viewer"
	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/infrastructure/database/redis"
	"github.com/irisuniflora/VF/internal/infrastructure/messaging/kafka"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/prometheus"
	"github.com/irisuniflora/VF/internal/infrastructure/storage/minio"
	vfgrpc "github.com/irisuniflora/VF/internal/interfaces/grpc"
	"github.com/irisuniflora/VF/internal/interfaces/grpc/services"
	httpserver "github.com/irisuniflora/VF/internal/interfaces/http"
	"github.com/irisuniflora/VF/internal/interfaces/http/handlers"
	"github.com/irisuniflora/VF/internal/interfaces/http/middleware"
)

// App is the assembled server.
type App struct {
	cfg     *config.Config
	logger  logging.Logger
	version string

	Viewer  *viewer.Service
	Loader  *loader.Loader
	Metrics *prometheus.AppMetrics

	http    *httpserver.Server
	grpc    *vfgrpc.Server
	closers []func() error
}

// New builds every component enabled in cfg.  Optional backends that cannot
// be reached at startup are logged and left out.
func New(cfg *config.Config, logger logging.Logger, version string) (*App, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	a := &App{cfg: cfg, logger: logger, version: version}

	var (
		collector prometheus.MetricsCollector
		checkers  []handlers.HealthChecker
		err       error
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			return nil, err
		}
		a.Metrics = prometheus.NewAppMetrics(collector)
	}

	loaderOpts := []loader.Option{loader.WithLogger(logger.Named("loader"))}
	if a.Metrics != nil {
		loaderOpts = append(loaderOpts, loader.WithMetrics(a.Metrics))
	}
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger.Named("redis"))
		if err != nil {
			logger.Warn("structure cache disabled", logging.Err(err))
		} else {
			a.closers = append(a.closers, client.Close)
			cache := redis.NewRedisCache(client, logger.Named("cache"),
				redis.WithPrefix(cfg.Redis.KeyPrefix),
				redis.WithDefaultTTL(cfg.Redis.DefaultTTL))
			loaderOpts = append(loaderOpts, loader.WithCache(cache, cfg.Redis.DefaultTTL))
			checkers = append(checkers, handlers.CheckFunc{Label: "redis", Fn: client.Ping})
		}
	}
	if cfg.MinIO.Enabled {
		store, err := minio.NewClient(cfg.MinIO, logger.Named("minio"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		loaderOpts = append(loaderOpts, loader.WithObjectStore(store))
		checkers = append(checkers, handlers.CheckFunc{Label: "minio", Fn: store.HealthCheck})
	}
	a.Loader = loader.New(loaderOpts...)

	viewerOpts := []viewer.Option{viewer.WithLogger(logger.Named("viewer"))}
	if a.Metrics != nil {
		viewerOpts = append(viewerOpts, viewer.WithMetrics(a.Metrics))
	}
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, logger.Named("kafka"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		viewerOpts = append(viewerOpts, viewer.WithPublisher(kafka.NewEventPublisher(producer, cfg.Kafka.Topic, logger.Named("events"))))
	}
	a.Viewer = viewer.NewService(viewer.OptionsFromConfig(cfg.Viewer), viewerOpts...)

	a.http = httpserver.NewServer(cfg.Server, a.newRouter(collector, checkers), logger.Named("http"))

	if cfg.GRPC.Enabled {
		grpcOpts := []vfgrpc.Option{vfgrpc.WithLogger(logger.Named("grpc"))}
		if a.Metrics != nil {
			grpcOpts = append(grpcOpts, vfgrpc.WithMetrics(a.Metrics))
		}
		a.grpc, err = vfgrpc.NewServer(cfg.GRPC, grpcOpts...)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.grpc.RegisterService(&services.ViewerServiceDesc, services.NewViewerService(a.Loader, a.Viewer, logger.Named("grpc")))
	}
	return a, nil
}

func (a *App) newRouter(collector prometheus.MetricsCollector, checkers []handlers.HealthChecker) http.Handler {
	cors := middleware.DefaultCORSConfig()
	if len(a.cfg.Server.CORSOrigins) > 0 {
		cors.AllowedOrigins = a.cfg.Server.CORSOrigins
	}
	logCfg := middleware.DefaultLoggingConfig()
	limit := a.cfg.Server.MaxBodySize

	return httpserver.NewRouter(httpserver.RouterConfig{
		FileHandler:      handlers.NewFileHandler(a.Loader, a.logger.Named("http"), limit),
		StructureHandler: handlers.NewStructureHandler(a.Loader, a.Viewer, a.logger.Named("http"), limit),
		ViewerHandler:    handlers.NewViewerHandler(a.Viewer, limit),
		HealthHandler:    handlers.NewHealthHandler(a.cfg.Server.ServiceName, a.version, checkers...),
		StaticDir:        a.cfg.Server.StaticDir,
		CORS:             &cors,
		Logging:          &logCfg,
		Logger:           a.logger.Named("http"),
		Metrics:          a.Metrics,
		MetricsCollector: collector,
		MetricsPath:      a.cfg.Metrics.Path,
	})
}

// Handler is the HTTP root handler.
func (a *App) Handler() http.Handler { return a.http.Handler() }

// Run serves HTTP and gRPC until ctx ends or a server fails, then stops
// both.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(a.http.Start)
	if a.grpc != nil {
		g.Go(func() error {
			err := a.grpc.Start()
			if gctx.Err() != nil {
				// stopped before Serve picked up the listener
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down servers")
		stopCtx := context.WithoutCancel(ctx)
		if a.grpc != nil {
			if err := a.grpc.Stop(stopCtx); err != nil {
				a.logger.Warn("gRPC shutdown failed", logging.Err(err))
			}
		}
		return a.http.Stop(stopCtx)
	})
	return g.Wait()
}

// WatchConfig applies log level and viewer tunables from path on every
// write.  Server addresses and backends need a restart.
func (a *App) WatchConfig(path string) error {
	return config.Watch(path, func(cfg *config.Config) {
		if ls, ok := a.logger.(logging.LevelSetter); ok {
			ls.SetLevel(cfg.Log.Level)
		}
		a.Viewer.SetOptions(viewer.OptionsFromConfig(cfg.Viewer))
		a.logger.Info("configuration reloaded", logging.String("path", path))
	}, func(err error) {
		a.logger.Warn("configuration reload rejected", logging.Err(err))
	})
}

// Close releases the gRPC listener, the viewer and every backend client.
func (a *App) Close() {
	if a.grpc != nil {
		_ = a.grpc.Stop(context.Background())
	}
	if a.Viewer != nil {
		a.Viewer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", logging.Err(err))
		}
	}
	a.closers = nil
}
