package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/queue"
)

type ExportRunner interface {
	Process(ctx context.Context, exportID string) error
}

type SessionSweeper interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

type Processor struct {
	logger   zerolog.Logger
	exports  ExportRunner
	sessions SessionSweeper
}

type TaskPayload struct {
	Type     string `json:"type"`
	ExportID string `json:"exportId"`
}

func NewProcessor(logger zerolog.Logger, exports ExportRunner, sessions SessionSweeper) *Processor {
	return &Processor{
		logger:   logger,
		exports:  exports,
		sessions: sessions,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case queue.TaskExport:
		return p.handleExport(ctx, payload)
	case queue.TaskSessionCleanup:
		return p.handleSessionCleanup(ctx)
	default:
		p.logger.Warn().Str("type", payload.Type).Str("message_id", msg.ID).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	bytes, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, out)
}

func (p *Processor) handleExport(ctx context.Context, payload TaskPayload) error {
	if payload.ExportID == "" {
		p.logger.Warn().Msg("export task without export id")
		return nil
	}
	if err := p.exports.Process(ctx, payload.ExportID); err != nil {
		return fmt.Errorf("export %s: %w", payload.ExportID, err)
	}
	p.logger.Info().Str("export_id", payload.ExportID).Msg("export rendered")
	return nil
}

func (p *Processor) handleSessionCleanup(ctx context.Context) error {
	removed, err := p.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("session cleanup: %w", err)
	}
	p.logger.Info().Int64("removed", removed).Msg("expired sessions removed")
	return nil
}
