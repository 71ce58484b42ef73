package storage

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/affect-fusion/pkg/calibration"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
	cfg    RedisConfig
}

// NewRedis connects to the configured server and pings it once.
func NewRedis(ctx context.Context, cfg *RedisConfig) (calibration.Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "affect:calibration:"
	}

	return &redisStore{client: client, prefix: prefix, cfg: *cfg}, nil
}

func (s *redisStore) key(k string) string {
	return s.prefix + k
}

func (s *redisStore) Load(ctx context.Context, key string) (calibration.State, bool, error) {
	if err := checkKey(key); err != nil {
		return calibration.State{}, false, err
	}

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return calibration.State{}, false, nil
		}
		return calibration.State{}, false, fmt.Errorf("failed to load calibration %q: %w", key, err)
	}

	var state calibration.State
	if err := sonic.Unmarshal(raw, &state); err != nil {
		return calibration.State{}, false, fmt.Errorf("failed to decode calibration %q: %w", key, err)
	}
	return state, true, nil
}

// Save writes the record with the configured TTL; zero keeps it forever.
func (s *redisStore) Save(ctx context.Context, key string, state calibration.State) error {
	if err := checkKey(key); err != nil {
		return err
	}

	data, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}
	return s.client.Set(ctx, s.key(key), data, s.cfg.TTL).Err()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
