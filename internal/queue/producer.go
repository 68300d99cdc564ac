package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	TaskExport         = "export"
	TaskSessionCleanup = "session_cleanup"
)

// Job is one stream entry. Fields are flattened into the entry values.
type Job struct {
	Type     string
	ExportID string
}

func (j Job) values() map[string]any {
	values := map[string]any{"type": j.Type}
	if j.ExportID != "" {
		values["exportId"] = j.ExportID
	}
	return values
}

type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, job Job) error {
	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: job.values(),
	}).Result(); err != nil {
		return fmt.Errorf("enqueue %s: %w", job.Type, err)
	}
	return nil
}
