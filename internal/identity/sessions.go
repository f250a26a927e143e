package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/examforge/internal/config"
)

// SessionStore remembers which issued tokens are still live.
type SessionStore interface {
	Save(ctx context.Context, uid, jti string, ttl time.Duration) error
	Exists(ctx context.Context, uid, jti string) (bool, error)
	Delete(ctx context.Context, uid, jti string) error
	// Active reports whether uid has any live session left.
	Active(ctx context.Context, uid string) (bool, error)
}

// sessionScanCount is the SCAN page size hint used by Active.
const sessionScanCount = 100

// RedisSessionStore keeps one key per live token, expiring with the token.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Save(ctx context.Context, uid, jti string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, config.CacheKey.SessionKey(uid, jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, uid, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.SessionKey(uid, jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, uid, jti string) error {
	return s.rdb.Del(ctx, config.CacheKey.SessionKey(uid, jti)).Err()
}

func (s *RedisSessionStore) Active(ctx context.Context, uid string) (bool, error) {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, config.CacheKey.SessionPattern(uid), sessionScanCount).Result()
		if err != nil {
			return false, fmt.Errorf("scan sessions: %w", err)
		}
		if len(keys) > 0 {
			return true, nil
		}
		if next == 0 {
			return false, nil
		}
		cursor = next
	}
}
