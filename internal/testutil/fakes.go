package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/kriwitj/nso-forms/internal/queue"
	"github.com/kriwitj/nso-forms/internal/storage"
)

type BlobObject struct {
	Body        []byte
	ContentType string
}

// BlobStore keeps uploaded objects in memory.
type BlobStore struct {
	mu      sync.Mutex
	objects map[string]BlobObject
	// PutErr, when set, fails every Put.
	PutErr error
}

func NewBlobStore() *BlobStore {
	return &BlobStore{objects: map[string]BlobObject{}}
}

func (b *BlobStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if b.PutErr != nil {
		return b.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = BlobObject{Body: data, ContentType: contentType}
	return nil
}

func (b *BlobStore) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, 0, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.Body)), int64(len(obj.Body)), nil
}

func (b *BlobStore) Object(key string) (BlobObject, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[key]
	return obj, ok
}

// Queue records enqueued jobs instead of sending them to Redis.
type Queue struct {
	mu   sync.Mutex
	jobs []queue.Job
	Err  error
}

func (q *Queue) Enqueue(_ context.Context, job queue.Job) error {
	if q.Err != nil {
		return q.Err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *Queue) Jobs() []queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Job(nil), q.jobs...)
}

// Limiter allows the first N calls per form and client, then refuses.
type Limiter struct {
	mu    sync.Mutex
	Max   int
	calls map[string]int
	Err   error
}

func (l *Limiter) Allow(_ context.Context, formID string, clientKey string) (bool, error) {
	if l.Err != nil {
		return false, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = map[string]int{}
	}
	key := formID + "|" + clientKey
	l.calls[key]++
	return l.calls[key] <= l.Max, nil
}

var ErrUnavailable = errors.New("unavailable")
