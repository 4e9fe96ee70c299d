package worker

// retry.go
// Failed jobs wait in a sorted set scored by their next run time. A
// background goroutine moves due entries back onto their original queue.

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retrySet          = "jobs:retry"
	retryTickInterval = time.Second
	retryBatchSize    = 50
)

type retryEntry struct {
	Queue string `json:"queue"`
	Job   Job    `json:"job"`
}

func scheduleRetry(ctx context.Context, rdb *redis.Client, queue string, job Job, at time.Time) error {
	data, err := json.Marshal(retryEntry{Queue: queue, Job: job})
	if err != nil {
		return err
	}
	return rdb.ZAdd(ctx, retrySet, redis.Z{Score: float64(at.Unix()), Member: data}).Err()
}

func (p *Pool) runRetries(ctx context.Context) {
	ticker := time.NewTicker(retryTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n, err := moveDueRetries(ctx, p.rdb, now); err != nil {
				log.Error().Err(err).Msg("retry: failed to requeue due jobs")
			} else if n > 0 {
				log.Debug().Int("count", n).Msg("retry: jobs requeued")
			}
		}
	}
}

// moveDueRetries requeues up to retryBatchSize entries due at or before now.
// ZRem decides ownership, so concurrent API replicas never requeue twice.
func moveDueRetries(ctx context.Context, rdb *redis.Client, now time.Time) (int, error) {
	members, err := rdb.ZRangeByScore(ctx, retrySet, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.Unix(), 10),
		Count: retryBatchSize,
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, m := range members {
		removed, err := rdb.ZRem(ctx, retrySet, m).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		var e retryEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			log.Error().Err(err).Msg("retry: bad entry dropped")
			continue
		}
		if err := push(ctx, rdb, e.Queue, e.Job); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}
