package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/client"
	"github.com/noah-isme/ward-mar-api/internal/repository"
	"github.com/noah-isme/ward-mar-api/internal/service"
	"github.com/noah-isme/ward-mar-api/pkg/config"
	"github.com/noah-isme/ward-mar-api/pkg/database"
	"github.com/noah-isme/ward-mar-api/pkg/redisconn"
)

// Source bundles the configured MAR reader with its lifecycle hooks.
type Source struct {
	Name   string
	Reader service.MarSource
	// Store is set only for the redis backend, which also accepts publishes.
	Store *repository.MarRedisStore
	Ready func(ctx context.Context) error
	close func() error
}

// Close releases the underlying connection.
func (s *Source) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenSource connects to the backend selected by MAR_SOURCE.
func OpenSource(cfg *config.Config, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Mar.Source {
	case config.SourcePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return &Source{
			Name:   config.SourcePostgres,
			Reader: repository.NewMarRepository(db),
			Ready:  db.PingContext,
			close:  db.Close,
		}, nil
	case config.SourceRedis:
		rdb, err := redisconn.NewRedis(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store := repository.NewMarRedisStore(rdb, cfg.Mar.RedisKeyPrefix, logger)
		return &Source{
			Name:   config.SourceRedis,
			Reader: store,
			Store:  store,
			Ready:  func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			close:  rdb.Close,
		}, nil
	case config.SourceHTTP:
		directory := client.NewWardDirectoryClient(client.WardDirectoryConfig{
			BaseURL:    cfg.Directory.BaseURL,
			Token:      cfg.Directory.Token,
			Timeout:    cfg.Directory.Timeout,
			RetryCount: cfg.Directory.RetryCount,
		}, logger)
		return &Source{
			Name:   config.SourceHTTP,
			Reader: directory,
			Ready:  directory.Ping,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported MAR source %q", cfg.Mar.Source)
	}
}

// OpenRedisStore connects directly to the redis-backed store regardless of MAR_SOURCE.
func OpenRedisStore(cfg *config.Config, logger *zap.Logger) (*repository.MarRedisStore, func() error, error) {
	rdb, err := redisconn.NewRedis(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return repository.NewMarRedisStore(rdb, cfg.Mar.RedisKeyPrefix, logger), rdb.Close, nil
}
