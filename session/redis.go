package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisStore keeps the record under "<prefix>:<slot>".
//
//	Performance: 1 Redis command per operation.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	slot   string
	ttl    time.Duration
}

// NewRedisStore creates a [RedisStore]. An empty prefix defaults to "gls" and an empty slot to
// "default". A zero ttl keeps the record until cleared.
func NewRedisStore(client redis.UniversalClient, prefix, slot string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "gls"
	}
	if slot == "" {
		slot = "default"
	}
	return &RedisStore{redis: client, prefix: prefix, slot: slot, ttl: ttl}
}

func (s *RedisStore) key() string {
	return s.prefix + ":" + s.slot
}

// Save implements [Store].
func (s *RedisStore) Save(ctx context.Context, r Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(), data, s.ttl).Err(); err != nil {
		return oops.Code("SESSION_STORE_SAVE").With("key", s.key()).Wrap(errors.Join(ErrRedisUnavailable, err))
	}
	return nil
}

// Load implements [Store].
func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	data, err := s.redis.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, oops.Code("SESSION_STORE_LOAD").With("key", s.key()).Wrap(errors.Join(ErrRedisUnavailable, err))
	}
	return Decode(data)
}

// Clear implements [Store].
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key()).Err(); err != nil {
		return oops.Code("SESSION_STORE_CLEAR").With("key", s.key()).Wrap(errors.Join(ErrRedisUnavailable, err))
	}
	return nil
}
