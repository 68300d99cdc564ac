package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kriwitj/nso-forms/internal/models"
)

var ErrExportNotFound = errors.New("export not found")

const exportColumns = `id, form_id, requested_by, format, status, object_key, size_bytes, error, created_at, completed_at`

type ExportRepository struct {
	pool *pgxpool.Pool
}

func NewExportRepository(pool *pgxpool.Pool) *ExportRepository {
	return &ExportRepository{pool: pool}
}

func (r *ExportRepository) Create(ctx context.Context, export models.Export) (models.Export, error) {
	const query = `
		INSERT INTO exports (id, form_id, requested_by, format, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + exportColumns

	return scanExport(r.pool.QueryRow(ctx, query,
		export.ID,
		export.FormID,
		export.RequestedBy,
		export.Format,
		export.Status,
	))
}

func (r *ExportRepository) GetByID(ctx context.Context, id string) (models.Export, error) {
	query := `SELECT ` + exportColumns + ` FROM exports WHERE id = $1`
	return scanExport(r.pool.QueryRow(ctx, query, id))
}

func (r *ExportRepository) MarkReady(ctx context.Context, id string, objectKey string, size int64, at time.Time) error {
	const query = `
		UPDATE exports
		SET status = 'ready', object_key = $2, size_bytes = $3, error = '', completed_at = $4
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, objectKey, size, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExportNotFound
	}
	return nil
}

func (r *ExportRepository) MarkFailed(ctx context.Context, id string, reason string, at time.Time) error {
	const query = `
		UPDATE exports
		SET status = 'failed', error = $2, completed_at = $3
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, reason, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExportNotFound
	}
	return nil
}

func scanExport(row pgx.Row) (models.Export, error) {
	var export models.Export
	if err := row.Scan(
		&export.ID,
		&export.FormID,
		&export.RequestedBy,
		&export.Format,
		&export.Status,
		&export.ObjectKey,
		&export.SizeBytes,
		&export.Error,
		&export.CreatedAt,
		&export.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Export{}, ErrExportNotFound
		}
		return models.Export{}, err
	}
	return export, nil
}
