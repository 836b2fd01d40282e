package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisSessionStore keeps one hash per username in a Redis server.
type RedisSessionStore struct {
	rdb       redis.Cmdable
	keyPrefix string
	ttl       time.Duration
}

func NewRedisSessionStore(rdb redis.Cmdable, opts ...StoreOption) (*RedisSessionStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	o, err := applyStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisSessionStore{rdb: rdb, keyPrefix: o.keyPrefix, ttl: o.ttl}, nil
}

func (s *RedisSessionStore) Get(ctx context.Context, username string) (*SessionRecord, error) {
	key, err := sessionKey(s.keyPrefix, username)
	if err != nil {
		return nil, err
	}

	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", key, err)
	}
	return decodeRecord(username, fields)
}

func (s *RedisSessionStore) Put(ctx context.Context, rec SessionRecord) error {
	key, err := sessionKey(s.keyPrefix, rec.Username)
	if err != nil {
		return err
	}

	fields := encodeRecord(rec)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldUserID, fields[fieldUserID],
			fieldSessionExpired, fields[fieldSessionExpired],
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put %s: %w", key, err)
	}
	return nil
}

func (s *RedisSessionStore) MarkExpired(ctx context.Context, username string) error {
	key, err := sessionKey(s.keyPrefix, username)
	if err != nil {
		return err
	}

	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis exists %s: %w", key, err)
	}
	if n == 0 {
		log.Debug().Str("username", username).Msg("mark expired skipped, no cached session")
		return nil
	}
	if err := s.rdb.HSet(ctx, key, fieldSessionExpired, "1").Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
