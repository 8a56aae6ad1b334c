package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hub-backend/internal/shared/util"
)

const (
	redisKeyPrefix     = "hub:usage:"
	redisUpdateRetries = 5
)

// RedisStore keeps each record as a JSON value. Update uses WATCH/MULTI and
// retries when another writer touched the key first.
type RedisStore struct {
	Client redis.UniversalClient
}

// NewRedisStore constructs a Redis-backed usage store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{Client: client}
}

// redisKey hashes the user id so guest ids cannot shape the key space.
func redisKey(userID string) string {
	return redisKeyPrefix + util.HashKey(userID)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (Record, error) {
	raw, err := s.Client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return decodeRedisRecord(raw, userID)
}

func (s *RedisStore) Update(ctx context.Context, userID string, fn Mutator) (Record, error) {
	key := redisKey(userID)
	var out Record
	txf := func(tx *redis.Tx) error {
		rec := Record{}
		exists := true
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			exists = false
		case err != nil:
			return err
		default:
			if rec, err = decodeRedisRecord(raw, userID); err != nil {
				return err
			}
		}

		write, err := fn(&rec, exists)
		if err != nil {
			return err
		}
		rec.UserID = userID
		out = rec
		if !write {
			return nil
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode usage record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateRetries; i++ {
		err := s.Client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Record{}, err
		}
		return out, nil
	}
	return Record{}, fmt.Errorf("update usage %s: %w", userID, redis.TxFailedErr)
}

func decodeRedisRecord(raw []byte, userID string) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode usage record: %w", err)
	}
	rec.UserID = userID
	if rec.Counts == nil {
		rec.Counts = map[string]int{}
	}
	return rec, nil
}
