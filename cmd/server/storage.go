package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/bloquito/internal/adapter/cache"
	"github.com/seu-repo/bloquito/internal/adapter/storage/kv"
	"github.com/seu-repo/bloquito/internal/adapter/storage/postgres"
	"github.com/seu-repo/bloquito/internal/ports"
	"github.com/seu-repo/bloquito/pkg/config"
)

// storage bundles the repositories of the configured driver.
type storage struct {
	name     string
	chats    ports.ChatRepository
	profiles ports.ProfileRepository
	ping     func(ctx context.Context) error
	close    func() error
}

func (s *storage) Close() error {
	return s.close()
}

func openStorage(cfg *config.Config, logger *zap.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return openPostgres(cfg.Database, logger)
	case "cache", "":
		return openCache(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openPostgres(cfg config.DatabaseConfig, logger *zap.Logger) (*storage, error) {
	db, err := postgres.NewConnection(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			postgres.Close(db)
			return nil, err
		}
	}

	return &storage{
		name:     "postgres",
		chats:    postgres.NewChatRepository(db, logger),
		profiles: postgres.NewProfileRepository(db),
		ping:     func(ctx context.Context) error { return postgres.Ping(db) },
		close:    func() error { return postgres.Close(db) },
	}, nil
}

func openCache(cfg *config.Config, logger *zap.Logger) (*storage, error) {
	var c ports.Cache
	name := cacheName(cfg.Storage.Cache)
	switch name {
	case "redis":
		redisCache, err := cache.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		c = redisCache
	case "local":
		c = cache.NewLocalCache(cfg.Cache.CleanupInterval, logger)
	default:
		return nil, fmt.Errorf("unknown cache %q", cfg.Storage.Cache)
	}

	return &storage{
		name:     name,
		chats:    kv.NewChatRepository(c, cfg.Cache.SessionTTL, logger),
		profiles: kv.NewProfileRepository(c),
		ping:     func(ctx context.Context) error { return c.Ping() },
		close:    c.Close,
	}, nil
}

// cacheName resolves the configured cache; empty means local.
func cacheName(configured string) string {
	if configured == "" {
		return "local"
	}
	return configured
}
