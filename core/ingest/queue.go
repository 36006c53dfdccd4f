// Package ingest moves uploaded files through checksum dedup, tag
// extraction and compression into the catalog.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"
)

const uploadQueueKey = "mml:media:uploads"

// Queue is the redis-backed upload event queue between the upload surface
// and the indexing workers.
type Queue struct {
	client  *redis.Client
	workers int
}

// NewQueue creates the queue with the given worker parallelism.
func NewQueue(client *redis.Client, workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{client: client, workers: workers}
}

// Publish enqueues one upload event.
func (q *Queue) Publish(ctx context.Context, evt model.FileUploaded) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal upload event: %w", err)
	}
	if err := q.client.LPush(ctx, uploadQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue upload event: %w", err)
	}
	return nil
}

// Consume blocks on the queue and dispatches events to handle until the
// context is cancelled. At most the configured number of handlers run
// concurrently.
func (q *Queue) Consume(ctx context.Context, handle func(ctx context.Context, evt model.FileUploaded) error) {
	sem := make(chan struct{}, q.workers)

	for {
		result, err := q.client.BRPop(ctx, 5*time.Second, uploadQueueKey).Result()
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			logger.Error("failed to read upload queue", logger.ErrorField(err))
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var evt model.FileUploaded
		if err := json.Unmarshal([]byte(result[1]), &evt); err != nil {
			logger.Error("dropping malformed upload event", logger.ErrorField(err))
			continue
		}

		sem <- struct{}{}
		go func(evt model.FileUploaded) {
			defer func() { <-sem }()
			if err := handle(ctx, evt); err != nil {
				logger.Error("failed to index upload",
					logger.String("file", evt.FileName),
					logger.ErrorField(err))
			}
		}(evt)
	}
}
