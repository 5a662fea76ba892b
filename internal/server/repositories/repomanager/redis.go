package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/scorekeeper/internal/logging"
	"github.com/dmitrijs2005/scorekeeper/internal/server/config"
	"github.com/dmitrijs2005/scorekeeper/internal/server/repositories/users"
	"github.com/redis/go-redis/v9"
)

// RedisRepositoryManager vends the redis document store. It has no schema;
// RunMigrations rebuilds the secondary indexes instead.
type RedisRepositoryManager struct {
	client *redis.Client
	users  *users.RedisRepository
	logger logging.Logger
}

// redisOptions accepts either a redis:// URL, which carries its own
// credentials and database, or a plain host:port.
func redisOptions(cfg *config.Config) (*redis.Options, error) {
	if strings.HasPrefix(cfg.RedisAddr, "redis://") || strings.HasPrefix(cfg.RedisAddr, "rediss://") {
		opts, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		if opts.Username == "" {
			opts.Username = cfg.RedisUser
		}
		if opts.Password == "" {
			opts.Password = cfg.RedisPassword
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUser,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

// OpenRedis connects to redis and verifies the connection with a ping.
func OpenRedis(ctx context.Context, cfg *config.Config, logger logging.Logger) (*RedisRepositoryManager, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	m := NewRedisRepositoryManager(client, cfg.RedisKeyPrefix, logger)

	if err := m.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return m, nil
}

func NewRedisRepositoryManager(client *redis.Client, prefix string, logger logging.Logger) *RedisRepositoryManager {
	return &RedisRepositoryManager{
		client: client,
		users:  users.NewRedisRepository(client, prefix),
		logger: logger,
	}
}

// RunMigrations restores the email and score indexes from the stored user
// documents.
func (m *RedisRepositoryManager) RunMigrations(ctx context.Context) error {
	n, err := m.users.RebuildIndexes(ctx)
	if err != nil {
		return err
	}
	m.logger.Info(ctx, "indexes rebuilt", "users", n)
	return nil
}

func (m *RedisRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *RedisRepositoryManager) Ping(ctx context.Context) error {
	return m.users.Ping(ctx)
}

func (m *RedisRepositoryManager) Close() error {
	return m.client.Close()
}
