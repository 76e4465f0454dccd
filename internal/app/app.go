// Package app wires the store, the engines and the event fan-out from a Config.
// The HTTP server and the reconcile CLI share it.
package app

import (
	"context"
	"fmt"

	"wolontariat/config"
	"wolontariat/db"
	"wolontariat/internal/badges"
	"wolontariat/internal/enrollment"
	"wolontariat/internal/events"
	"wolontariat/internal/ledger"
	"wolontariat/internal/metrics"
	"wolontariat/internal/ratings"
	"wolontariat/internal/roster"
	"wolontariat/internal/volunteers"
	"wolontariat/websocket"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type App struct {
	Config      *config.Config
	Log         *zap.Logger
	Store       db.Store
	Hub         *websocket.Hub
	Metrics     *metrics.Metrics
	Publisher   events.Publisher
	Roster      *roster.Manager
	Ledger      *ledger.Ledger
	Coordinator *enrollment.Coordinator
	Badges      *badges.Service
	Volunteers  *volunteers.Service
	Ratings     *ratings.Engine

	// Consumer is set when Redis is enabled; the server runs it
	Consumer *events.StreamConsumer

	mongo *db.MongoStore
	redis *redis.Client
}

// New connects the configured backends and builds every engine
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log, Hub: websocket.NewHub(log), Metrics: metrics.New()}

	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		a.Store = db.NewMemStore()
	default:
		store, err := db.ConnectMongoDB(ctx, cfg.Database.URI, log)
		if err != nil {
			return nil, err
		}
		a.mongo = store
		a.Store = store
	}

	publishers := events.Multi{a.Hub, a.Metrics}
	var limiter ratings.Limiter
	if cfg.Redis.Enabled {
		rdb, err := events.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.redis = rdb
		key := cfg.Redis.StreamKey
		if key == "" {
			key = events.DefaultStreamKey
		}
		// With a stream the hub is fed by the consumer, so every instance's
		// clients see every event exactly once.
		publishers = events.Multi{events.NewRedisStream(rdb, key, cfg.Redis.StreamMaxLen), a.Metrics}
		a.Consumer = events.NewStreamConsumer(rdb, key, a.Hub, log)
		if cfg.Ratings.RateLimit.Max > 0 {
			limiter = ratings.NewRedisLimiter(rdb, cfg.Ratings.RateLimit.Max, cfg.RateLimitWindow())
		}
	}
	a.Publisher = publishers

	a.Roster = roster.NewManager(a.Store, log, cfg.Enrollment.MaxAttempts)
	a.Ledger = ledger.NewLedger(a.Store, log, cfg.Enrollment.MaxAttempts)
	a.Coordinator = enrollment.NewCoordinator(a.Roster, a.Ledger, a.Publisher, log)
	a.Badges = badges.NewService(a.Store, a.Publisher, log, cfg.Enrollment.MaxAttempts)
	a.Volunteers = volunteers.NewService(a.Store, a.Badges, log, cfg.Enrollment.MaxAttempts)
	a.Ratings = ratings.NewEngine(a.Store, a.Publisher, limiter, log, cfg.Ratings.MaxAttempts)
	return a, nil
}

// Close releases the backend connections
func (a *App) Close(ctx context.Context) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("failed to close Redis client", zap.Error(err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.Log.Warn("failed to disconnect MongoDB", zap.Error(err))
		}
	}
}
