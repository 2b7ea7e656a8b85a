package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/redis/go-redis/v9"
)

// RedisDataBus stores session data rows as fields of one hash per session.
// Hashes expire after the configured TTL so finished sessions clean themselves
// up without a reaper.
type RedisDataBus struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

func NewRedisDataBus(ctx context.Context, cfg RedisConfig) (*RedisDataBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &RedisDataBus{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       ttl,
	}, nil
}

func (b *RedisDataBus) sessionKey(sessionID string) string {
	if b.keyPrefix != "" {
		return fmt.Sprintf("%s:sessions:%s:data", b.keyPrefix, sessionID)
	}

	return fmt.Sprintf("sessions:%s:data", sessionID)
}

func (b *RedisDataBus) Put(ctx context.Context, entry domain.SessionDataEntry) error {
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal data entry: %w", err)
	}

	key := b.sessionKey(entry.SessionID)

	if err := b.client.HSet(ctx, key, entry.DataKey, encoded).Err(); err != nil {
		return fmt.Errorf("failed to write data entry: %w", err)
	}

	return b.client.Expire(ctx, key, b.ttl).Err()
}

func (b *RedisDataBus) Get(ctx context.Context, sessionID, dataKey string) (domain.SessionDataEntry, error) {
	raw, err := b.client.HGet(ctx, b.sessionKey(sessionID), dataKey).Result()
	if err == redis.Nil {
		return domain.SessionDataEntry{}, domain.ErrDataKeyNotFound
	}
	if err != nil {
		return domain.SessionDataEntry{}, fmt.Errorf("failed to read data entry: %w", err)
	}

	var entry domain.SessionDataEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return domain.SessionDataEntry{}, fmt.Errorf("failed to unmarshal data entry: %w", err)
	}

	return entry, nil
}

func (b *RedisDataBus) List(ctx context.Context, sessionID string) ([]domain.SessionDataEntry, error) {
	fields, err := b.client.HGetAll(ctx, b.sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list session data: %w", err)
	}

	entries := make([]domain.SessionDataEntry, 0, len(fields))

	for _, raw := range fields {
		var entry domain.SessionDataEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (b *RedisDataBus) Close() error {
	return b.client.Close()
}
