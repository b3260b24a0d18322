package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"instagramclone/internal/config"
	"instagramclone/internal/database"
	handlers "instagramclone/internal/handler"
	"instagramclone/internal/metrics"
	"instagramclone/internal/middleware"
	"instagramclone/internal/repository"
	"instagramclone/internal/service"
	"instagramclone/internal/session"
	"instagramclone/internal/storage"
)

type App struct {
	Handler http.Handler
	Metrics *metrics.Metrics

	db    *database.DB
	redis *redis.Client
}

// New wires every dependency selected by cfg. Anything opened before a
// failure is closed again.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (_ *App, err error) {
	a := &App{Metrics: metrics.New()}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				log.WithError(closeErr).Warn("cleanup after failed startup")
			}
		}
	}()

	checks := map[string]handlers.HealthCheck{}

	// enabling repositories
	repo := repository.NewMemoryRepository()
	if cfg.RepositoryBackend == config.BackendPostgres {
		a.db, err = database.ConnectDB(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("connect repository: %w", err)
		}
		repo = repository.NewRepository(a.db.DB)
		checks["postgres"] = func(ctx context.Context) error { return a.db.PingContext(ctx) }
		checks["schema"] = repository.SchemaCheck(repository.NewTablesRepository(a.db.DB))
	} else {
		log.Warn("repository backend is memory, accounts and posts are lost on restart")
	}

	// enabling the session store
	var store session.Store = session.NewMemoryStore()
	if cfg.SessionBackend == config.BackendRedis {
		a.redis, err = session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect session store: %w", err)
		}
		store = session.NewRedisStore(a.redis)
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	media, err := storage.New(ctx, cfg.Media, log)
	if err != nil {
		return nil, fmt.Errorf("media store: %w", err)
	}

	secret := []byte(cfg.SessionSecret)
	sessions := session.NewManager(store, secret, cfg.SessionTTL, log)
	services := service.NewService(repo, sessions, media, a.Metrics, log)

	h := handlers.NewHandlers(services, session.NewCookieTransport(secret, cfg.SessionTTL, cfg.CookieSecure), cfg, log)
	for name, check := range checks {
		h.HealthChecks[name] = check
	}

	router := handlers.NewRouter(h, a.Metrics.Handler(), middleware.Metrics(a.Metrics))

	a.Handler = middleware.Chain(
		router,
		middleware.RateLimit(cfg.RateLimitPerMinute, log),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.Logging(log),
		middleware.Recovery(log),
	)

	log.WithFields(logrus.Fields{
		"repository": cfg.RepositoryBackend,
		"sessions":   cfg.SessionBackend,
		"media":      cfg.Media.Backend,
	}).Info("application wired")

	return a, nil
}

func (a *App) Close() error {
	var result *multierror.Error

	if a.db != nil {
		if err := a.db.CloseDB(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
		}
	}

	return result.ErrorOrNil()
}
