package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisGetter is implemented by clients and transactions alike.
type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStorage stores each record as a JSON value and keeps, per (target, label),
// a pointer key holding the id of the newest record.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStorage creates a storage on client. Keys are namespaced by prefix.
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "notifyrelay"
	}
	return &RedisStorage{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStorage) recordKey(id string) string {
	return s.prefix + ":notification:" + id
}

// latestKey length-prefixes target so that distinct pairs never share a key.
func (s *RedisStorage) latestKey(target, label string) string {
	return fmt.Sprintf("%s:notification:latest:%d:%s%s", s.prefix, len(target), target, label)
}

func (s *RedisStorage) Create(ctx context.Context, rec Record) error {
	rec.normalize(s.now().UTC(), uuid.NewString)
	if err := rec.validate(); err != nil {
		return err
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(rec.ID), value, 0)
		pipe.Set(ctx, s.latestKey(rec.Target, rec.Label), rec.ID, 0)
		return nil
	})
	if err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *RedisStorage) UpsertStatus(ctx context.Context, target, label string, status Status, opts ...UpsertOption) error {
	if err := validateUpsert(target, status); err != nil {
		return err
	}

	latestKey := s.latestKey(target, label)

	update := func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, latestKey).Result()
		if errors.Is(err, redis.Nil) {
			rec := newUpsertRecord(target, label, status, opts)
			rec.normalize(s.now().UTC(), uuid.NewString)
			if err := rec.validate(); err != nil {
				return err
			}
			value, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, s.recordKey(rec.ID), value, 0)
				pipe.Set(ctx, latestKey, rec.ID, 0)
				return nil
			})
			return err
		}
		if err != nil {
			return err
		}

		recKey := s.recordKey(id)
		if err := tx.Watch(ctx, recKey).Err(); err != nil {
			return err
		}

		rec, err := s.load(ctx, tx, recKey)
		if err != nil {
			return err
		}
		if rec.Status.CanTransitionTo(status) {
			rec.Status = status
		}
		rec.UpdatedAt = s.now().UTC()

		value, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recKey, value, 0)
			return nil
		})
		return err
	}

	var err error
	for range maxUpdateAttempts {
		err = s.client.Watch(ctx, update, latestKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTargetRequired), errors.Is(err, ErrInvalidChannel), errors.Is(err, ErrInvalidStatus):
		return err
	default:
		return errors.Join(ErrStorageFailure, err)
	}
}

func (s *RedisStorage) Latest(ctx context.Context, target, label string) (Record, error) {
	id, err := s.client.Get(ctx, s.latestKey(target, label)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStorageFailure, err)
	}

	rec, err := s.load(ctx, s.client, s.recordKey(id))
	if errors.Is(err, ErrRecordNotFound) {
		return Record{}, err
	}
	if err != nil {
		return Record{}, errors.Join(ErrStorageFailure, err)
	}
	return rec, nil
}

func (s *RedisStorage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrStorageFailure, err)
	}
	return nil
}

func (s *RedisStorage) load(ctx context.Context, c redisGetter, key string) (Record, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", key, err)
	}
	return rec, nil
}
