// Package runtime assembles the gateway process: configuration, storage,
// migrations, the lifecycle engine, and the HTTP server.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	stderrors "errors"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	app "github.com/talenthive/recruiting_layer/internal/app"
	"github.com/talenthive/recruiting_layer/internal/app/attachments"
	"github.com/talenthive/recruiting_layer/internal/app/httpapi"
	"github.com/talenthive/recruiting_layer/internal/app/metrics"
	"github.com/talenthive/recruiting_layer/internal/app/notify"
	"github.com/talenthive/recruiting_layer/internal/app/storage/postgres"
	"github.com/talenthive/recruiting_layer/internal/config"
	"github.com/talenthive/recruiting_layer/internal/middleware"
	"github.com/talenthive/recruiting_layer/pkg/logger"
)

// Runtime owns the process-level resources of a running gateway.
type Runtime struct {
	cfg    config.Config
	log    *logger.Logger
	app    *app.Application
	server *http.Server

	db    *sqlx.DB
	redis *redis.Client
}

// New wires a gateway from configuration. Nothing starts until Run.
func New(cfg config.Config, log *logger.Logger) (*Runtime, error) {
	if log == nil {
		log = logger.New(logger.LoggingConfig{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			Output:    cfg.Logging.Output,
			Component: "gateway",
		})
	}

	rt := &Runtime{cfg: cfg, log: log}

	stores := app.Stores{}
	if cfg.Database.DSN != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		rt.db = db

		if err := runMigrations(db, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}

		store := postgres.New(db)
		stores = app.Stores{Applications: store, Jobs: store, Candidates: store}
		log.Info("postgres store ready")
	} else {
		log.Warn("DATABASE_DSN not set; using in-memory store")
	}

	blobs, err := attachments.NewFS(cfg.Attachments.Root, cfg.Attachments.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("attachment storage: %w", err)
	}

	var notifier notify.Notifier
	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		notifier = notify.NewRedis(rt.redis, cfg.Redis.Channel)
		log.WithField("channel", cfg.Redis.Channel).Info("redis notifier ready")
	} else {
		log.Warn("REDIS_ADDR not set; application events will not be published")
	}

	application, err := app.New(stores, app.Options{
		Blobs:         blobs,
		Notifier:      notifier,
		SweepSchedule: cfg.Attachments.SweepSchedule,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	rt.app = application

	if weights, err := config.LoadScoreWeights(); err != nil {
		log.WithError(err).Warn("scoring config rejected; using stock weights")
	} else {
		application.Applications.SetRules(nil, weights)
	}

	rt.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      rt.buildHandler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	return rt, nil
}

func (rt *Runtime) buildHandler() http.Handler {
	handler := httpapi.NewHandler(rt.app)

	actor := middleware.NewActorExtractor([]byte(rt.cfg.Auth.JWTKey), rt.log)
	limiter := middleware.NewRateLimiter(rt.cfg.RateLimit.RequestsPerSecond, rt.cfg.RateLimit.Burst, rt.log)
	limiter.StartCleanup(10 * time.Minute)
	cors := middleware.NewCORSMiddleware(rt.cfg.HTTP.AllowedOrigins)
	recoverer := middleware.NewRecoverer(rt.log)

	// Outermost first: recover, CORS, rate limit, metrics, actor.
	chain := actor.Handler(handler)
	chain = metrics.InstrumentHandler(chain)
	chain = limiter.Handler(chain)
	chain = cors.Handler(chain)
	chain = recoverer.Handler(chain)
	return chain
}

// Run starts the background services and the HTTP server, blocking until
// ctx is cancelled, then shuts everything down in order.
func (rt *Runtime) Run(ctx context.Context) error {
	if err := rt.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.WithField("addr", rt.cfg.HTTP.Addr).Info("http server listening")
		if err := rt.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = rt.shutdown(context.Background())
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return rt.shutdown(shutdownCtx)
}

func (rt *Runtime) shutdown(ctx context.Context) error {
	var firstErr error
	if err := rt.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}
	if err := rt.app.Stop(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop services: %w", err)
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close redis: %w", err)
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close postgres: %w", err)
		}
	}
	rt.log.Info("gateway stopped")
	return firstErr
}

func runMigrations(db *sqlx.DB, path string) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
