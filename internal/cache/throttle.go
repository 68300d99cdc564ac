package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmitThrottle allows one submission per client and form inside a window.
// A nil throttle or zero window allows everything.
type SubmitThrottle struct {
	client *redis.Client
	window time.Duration
}

func NewSubmitThrottle(client *redis.Client, window time.Duration) *SubmitThrottle {
	return &SubmitThrottle{client: client, window: window}
}

func (t *SubmitThrottle) Allow(ctx context.Context, formID string, clientKey string) (bool, error) {
	if t == nil || t.client == nil || t.window <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("submit:%s:%s", formID, clientKey)
	ok, err := t.client.SetNX(ctx, key, "1", t.window).Result()
	if err != nil {
		return false, fmt.Errorf("throttle setnx: %w", err)
	}
	return ok, nil
}
