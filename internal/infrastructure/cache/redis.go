package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"origination-engine/internal/config"
	"origination-engine/internal/domain/application"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultStatusTTL = 30 * time.Second

// StatusCache keeps recently read applications in Redis so status polling
// does not hammer the database. Entries expire quickly; the database stays
// the source of truth and every cache failure degrades to a miss.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ application.Cache = (*StatusCache)(nil)

func NewStatusCache(cfg config.RedisConfig, logger *slog.Logger) (*StatusCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.StatusTTL
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}

	return &StatusCache{
		client: rdb,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "statusCache")),
	}, nil
}

func applicationKey(applicationID uuid.UUID) string {
	return "application:" + applicationID.String()
}

func (c *StatusCache) Get(ctx context.Context, applicationID uuid.UUID) (*application.Application, bool) {
	data, err := c.client.Get(ctx, applicationKey(applicationID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Cache read failed, falling through to database", slog.Any("error", err))
		}
		return nil, false
	}

	var app application.Application
	if err := json.Unmarshal(data, &app); err != nil {
		c.logger.WarnContext(ctx, "Cache entry undecodable, falling through to database", slog.Any("error", err))
		return nil, false
	}

	return &app, true
}

func (c *StatusCache) Set(ctx context.Context, app *application.Application) {
	if app == nil {
		return
	}

	data, err := json.Marshal(app)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to encode application for cache", slog.Any("error", err))
		return
	}

	if err := c.client.Set(ctx, applicationKey(app.ID), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Cache write failed", slog.Any("error", err))
	}
}

func (c *StatusCache) Close() error {
	return c.client.Close()
}
