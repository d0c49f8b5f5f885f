package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "wordcards:session:"
	defaultTTL     = 24 * time.Hour
)

// RedisStore keeps sessions in Redis. Expiry is left to the key TTL, which
// is refreshed on every read and write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key) (*State, error) {
	rkey := s.key(key)
	val, err := s.client.Get(ctx, rkey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(val, &state); err != nil {
		return nil, err
	}

	// A failed refresh only shortens the session
	_ = s.client.Expire(ctx, rkey, s.ttl).Err()

	return &state, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, state *State) error {
	state.UpdatedAt = time.Now()

	val, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(state.Key()), val, s.ttl).Err()
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(key Key) string {
	return redisKeyPrefix + key.String()
}
