package redisinfra

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/go-account-api/internal/pkg/id"
)

// NewClient connects to the Redis instance described by a redis:// URL.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// WindowStore keeps a sliding-window log per key in a sorted set scored by
// attempt time, so every API instance shares the same window.
type WindowStore struct {
	client *redis.Client
	prefix string
}

func NewWindowStore(client *redis.Client, prefix string) *WindowStore {
	return &WindowStore{client: client, prefix: prefix}
}

// Allow records an attempt at now and reports whether it is within limit for
// the trailing window. Rejected attempts are not kept in the log.
func (s *WindowStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	k := s.prefix + key
	member := id.NewAt(now)
	oldest := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)

	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, k, "-inf", oldest)
		pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMilli()), Member: member})
		card = pipe.ZCard(ctx, k)
		pipe.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("record attempt: %w", err)
	}
	if card.Val() <= int64(limit) {
		return true, nil
	}
	if err := s.client.ZRem(ctx, k, member).Err(); err != nil {
		return false, fmt.Errorf("drop rejected attempt: %w", err)
	}
	return false, nil
}
