package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pyreportal/kiosk-agent/internal/models"
)

// PendingScanRepository queues check-in scans that could not be delivered
// upstream. The queue is a Redis list so entries survive agent restarts.
type PendingScanRepository struct {
	client *redis.Client
	key    string
}

// NewPendingScanRepository constructs a queue backed by the given list key.
func NewPendingScanRepository(client *redis.Client, key string) *PendingScanRepository {
	return &PendingScanRepository{client: client, key: key}
}

// Enqueue appends a pending scan to the tail of the queue.
func (r *PendingScanRepository) Enqueue(ctx context.Context, scan models.PendingScan) error {
	if r.client == nil {
		return fmt.Errorf("offline queue unavailable: redis not configured")
	}
	payload, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("marshal pending scan: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue pending scan: %w", err)
	}
	return nil
}

// Requeue puts a scan back at the head of the queue so it stays in front
// of anything enqueued while it was being delivered.
func (r *PendingScanRepository) Requeue(ctx context.Context, scan models.PendingScan) error {
	if r.client == nil {
		return fmt.Errorf("offline queue unavailable: redis not configured")
	}
	payload, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("marshal pending scan: %w", err)
	}
	if err := r.client.LPush(ctx, r.key, payload).Err(); err != nil {
		return fmt.Errorf("requeue pending scan: %w", err)
	}
	return nil
}

// Dequeue pops the oldest pending scan. Returns (nil, nil) when the queue
// is empty.
func (r *PendingScanRepository) Dequeue(ctx context.Context) (*models.PendingScan, error) {
	if r.client == nil {
		return nil, nil
	}
	raw, err := r.client.LPop(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue pending scan: %w", err)
	}
	var scan models.PendingScan
	if err := json.Unmarshal(raw, &scan); err != nil {
		return nil, fmt.Errorf("unmarshal pending scan: %w", err)
	}
	return &scan, nil
}

// Len reports how many scans are waiting.
func (r *PendingScanRepository) Len(ctx context.Context) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	n, err := r.client.LLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("pending scan queue length: %w", err)
	}
	return n, nil
}
