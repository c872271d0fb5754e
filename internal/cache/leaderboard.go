// Package cache keeps a short-lived redis snapshot of the ranked leaderboard
// rows so screens polling /leaderboard do not all hit the database view.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "innerdrive:leaderboard"
	generationKey  = "innerdrive:leaderboard:generation"
)

// errStaleSnapshot aborts a Set whose rows predate an invalidation.
var errStaleSnapshot = errors.New("leaderboard snapshot is stale")

// LeaderboardCache stores one JSON snapshot per window size in a single
// hash, so invalidation is one DEL. A counter next to it is bumped on every
// invalidation and guards writes of snapshots read before it.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]race.LeaderboardEntry, bool, error) {
	data, err := c.client.HGet(ctx, leaderboardKey, strconv.Itoa(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard snapshot: %w", err)
	}

	var entries []race.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode leaderboard snapshot: %w", err)
	}
	return entries, true, nil
}

func (c *LeaderboardCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read leaderboard generation: %w", err)
	}
	return generation, nil
}

// Set writes the snapshot only while the generation is still the one the
// rows were read under.
func (c *LeaderboardCache) Set(ctx context.Context, generation int64, limit int, entries []race.LeaderboardEntry) (bool, error) {
	if entries == nil {
		entries = []race.LeaderboardEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("failed to encode leaderboard snapshot: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, leaderboardKey, strconv.Itoa(limit), data)
			pipe.Expire(ctx, leaderboardKey, c.ttl)
			return nil
		})
		return err
	}, generationKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleSnapshot), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("failed to store leaderboard snapshot: %w", err)
	}
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, generationKey)
	pipe.Del(ctx, leaderboardKey)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *LeaderboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
