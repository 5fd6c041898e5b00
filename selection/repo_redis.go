package selection

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "seller:selection:"

	// updateMaxRetries bounds optimistic retries when a watched key changes mid-update.
	updateMaxRetries = 8
)

// RedisRepo stores selections as JSON with a TTL, so a selection never outlives its session cookie.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepo(client *redis.Client, ttl time.Duration) *RedisRepo {
	return &RedisRepo{client: client, ttl: ttl}
}

func (r *RedisRepo) key(key string) string {
	return redisKeyPrefix + key
}

func (r *RedisRepo) Upsert(ctx context.Context, key string, s Selection) error {
	if err := requireKey(key); err != nil {
		return err
	}
	encoded, err := json.Marshal(s)
	if err != nil {
		return gwerrors.Wrapf(err, "[selection RedisRepo.Upsert] encode")
	}
	if err := r.client.Set(ctx, r.key(key), encoded, r.ttl).Err(); err != nil {
		return gwerrors.Wrapf(err, "[selection RedisRepo.Upsert] set")
	}
	return nil
}

// Update runs a WATCH/MULTI read-modify-write, retrying when another writer
// touches the key between the read and the commit.
func (r *RedisRepo) Update(ctx context.Context, key string, fn func(*Selection)) (Selection, error) {
	if err := requireKey(key); err != nil {
		return Selection{}, err
	}
	redisKey := r.key(key)

	for i := 0; i < updateMaxRetries; i++ {
		var updated Selection

		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			var s Selection
			raw, err := tx.Get(ctx, redisKey).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return err
			default:
				if err := json.Unmarshal(raw, &s); err != nil {
					return err
				}
			}

			fn(&s)
			encoded, err := json.Marshal(s)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, redisKey, encoded, r.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			updated = s
			return nil
		}, redisKey)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Selection{}, gwerrors.Wrapf(err, "[selection RedisRepo.Update] %s", key)
		}
		return updated, nil
	}
	return Selection{}, gwerrors.Wrapf(redis.TxFailedErr, "[selection RedisRepo.Update] %s: retries exhausted", key)
}

func (r *RedisRepo) Get(ctx context.Context, key string) (Selection, error) {
	if err := requireKey(key); err != nil {
		return Selection{}, err
	}
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Selection{}, gwerrors.ErrNotFound
	}
	if err != nil {
		return Selection{}, gwerrors.Wrapf(err, "[selection RedisRepo.Get] get")
	}

	var s Selection
	if err := json.Unmarshal(raw, &s); err != nil {
		return Selection{}, gwerrors.Wrapf(err, "[selection RedisRepo.Get] decode")
	}
	return s, nil
}

func (r *RedisRepo) Delete(ctx context.Context, key string) error {
	if err := requireKey(key); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return gwerrors.Wrapf(err, "[selection RedisRepo.Delete] del")
	}
	return nil
}
