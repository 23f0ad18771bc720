package authcontext

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authctx:"

// removeIfScript deletes KEYS[1] only while it holds ARGV[1].
var removeIfScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStorage keeps auth context entries in Redis, one string key per
// session and context key. Redis expires entries natively, so DeleteExpired
// has nothing to do.
type RedisStorage struct {
	client redis.UniversalClient
}

func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	return &RedisStorage{client: client}
}

func redisKey(sessionID string, key Key) string {
	return redisKeyPrefix + sessionID + ":" + string(key)
}

func (s *RedisStorage) Get(ctx context.Context, sessionID string, key Key) (string, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return raw, true, nil
}

func (s *RedisStorage) Set(ctx context.Context, sessionID string, key Key, raw string, expiresAt time.Time) error {
	// PXAT keeps millisecond precision; SetArgs.ExpireAt rounds to seconds.
	err := s.client.Do(ctx, "SET", redisKey(sessionID, key), raw, "PXAT", expiresAt.UnixMilli()).Err()
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStorage) Remove(ctx context.Context, sessionID string, key Key) error {
	if err := s.client.Del(ctx, redisKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisStorage) RemoveIf(ctx context.Context, sessionID string, key Key, raw string) error {
	if err := removeIfScript.Run(ctx, s.client, []string{redisKey(sessionID, key)}, raw).Err(); err != nil {
		return fmt.Errorf("redis conditional del: %w", err)
	}
	return nil
}

// Clear deletes every key of the vocabulary for the session. The vocabulary
// is fixed, so no SCAN is needed.
func (s *RedisStorage) Clear(ctx context.Context, sessionID string) error {
	keys := make([]string, 0, len(AllKeys))
	for _, k := range AllKeys {
		keys = append(keys, redisKey(sessionID, k))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

// Take uses GETDEL so two concurrent consumers cannot both read the value.
func (s *RedisStorage) Take(ctx context.Context, sessionID string, key Key) (string, bool, error) {
	raw, err := s.client.GetDel(ctx, redisKey(sessionID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getdel: %w", err)
	}
	return raw, true, nil
}

func (s *RedisStorage) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
