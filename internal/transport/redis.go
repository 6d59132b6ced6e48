package transport

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"mirrorsync/internal/model"
)

// RedisList appends JSON payloads to a shared Redis list.
type RedisList struct {
	rdb redis.Cmdable
	key string
}

func NewRedisList(rdb redis.Cmdable, key string) *RedisList {
	return &RedisList{rdb: rdb, key: key}
}

func (r *RedisList) Name() string { return string(KindRedis) }

func (r *RedisList) Send(ctx context.Context, rec model.SubmissionRecord) error {
	body, err := json.Marshal(rec.Payload())
	if err != nil {
		return err
	}
	if err := r.rdb.RPush(ctx, r.key, body).Err(); err != nil {
		return &StorageError{Backend: "redis", Err: err}
	}
	return nil
}
