package tasks

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type fakeExports struct {
	processed []string
	err       error
}

func (f *fakeExports) Process(_ context.Context, exportID string) error {
	f.processed = append(f.processed, exportID)
	return f.err
}

type fakeSweeper struct {
	calls int
}

func (f *fakeSweeper) CleanupExpiredSessions(context.Context) (int64, error) {
	f.calls++
	return 3, nil
}

func TestProcessorDispatch(t *testing.T) {
	tests := []struct {
		name        string
		values      map[string]interface{}
		exportErr   error
		wantErr     bool
		wantExports int
		wantSweeps  int
	}{
		{"export", map[string]interface{}{"type": "export", "exportId": "e1"}, nil, false, 1, 0},
		{"export failure is returned", map[string]interface{}{"type": "export", "exportId": "e1"}, errors.New("minio down"), true, 1, 0},
		{"export without id is dropped", map[string]interface{}{"type": "export"}, nil, false, 0, 0},
		{"session cleanup", map[string]interface{}{"type": "session_cleanup"}, nil, false, 0, 1},
		{"unknown type is ignored", map[string]interface{}{"type": "nsfw"}, nil, false, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exports := &fakeExports{err: tt.exportErr}
			sweeper := &fakeSweeper{}
			p := NewProcessor(zerolog.New(io.Discard), exports, sweeper)

			err := p.Handle(context.Background(), redis.XMessage{ID: "1-0", Values: tt.values})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(exports.processed) != tt.wantExports {
				t.Errorf("exports processed = %d, want %d", len(exports.processed), tt.wantExports)
			}
			if sweeper.calls != tt.wantSweeps {
				t.Errorf("sweeps = %d, want %d", sweeper.calls, tt.wantSweeps)
			}
		})
	}
}
