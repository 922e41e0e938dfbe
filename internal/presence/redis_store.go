package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	visitorsKey      = "presence:visitors"
	authenticatedKey = "presence:authenticated"
)

// RedisStore keeps heartbeats in two sorted sets scored by unix
// milliseconds: every visitor, and the authenticated subset.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Touch(ctx context.Context, visitorID string, authenticated bool, at time.Time) error {
	z := redis.Z{Score: float64(at.UnixMilli()), Member: visitorID}
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, visitorsKey, z)
	if authenticated {
		pipe.ZAdd(ctx, authenticatedKey, z)
	} else {
		pipe.ZRem(ctx, authenticatedKey, visitorID)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Sweep(ctx context.Context, cutoff time.Time) error {
	// Exclusive upper bound: a heartbeat exactly at cutoff survives.
	upper := "(" + strconv.FormatInt(cutoff.UnixMilli(), 10)
	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, visitorsKey, "-inf", upper)
	pipe.ZRemRangeByScore(ctx, authenticatedKey, "-inf", upper)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Counts(ctx context.Context) (visitors, authenticated int, err error) {
	pipe := s.rdb.Pipeline()
	all := pipe.ZCard(ctx, visitorsKey)
	authed := pipe.ZCard(ctx, authenticatedKey)
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return int(all.Val()), int(authed.Val()), nil
}
