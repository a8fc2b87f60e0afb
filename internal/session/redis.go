package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "perfume-studio/internal/common/errors"
	"perfume-studio/internal/models"
)

const keyPrefix = "perfume:session:"

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context, id string) (*models.GenerationSession, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.NewSessionStoreFailedError(err)
	}
	return decode(data)
}

func (r *RedisStore) Save(ctx context.Context, s *models.GenerationSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.NewSessionStoreFailedError(err)
	}
	if err := r.client.Set(ctx, keyPrefix+s.ID, data, r.ttl).Err(); err != nil {
		return apperrors.NewSessionStoreFailedError(err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return apperrors.NewSessionStoreFailedError(err)
	}
	return nil
}
