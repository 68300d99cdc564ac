package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kriwitj/nso-forms/internal/models"
)

var ErrFormNotFound = errors.New("form not found")

const formColumns = `id, owner_id, title, description, is_active, is_published, start_at, end_at, deleted_at, created_at, updated_at`

type FormRepository struct {
	pool *pgxpool.Pool
}

func NewFormRepository(pool *pgxpool.Pool) *FormRepository {
	return &FormRepository{pool: pool}
}

func (r *FormRepository) Create(ctx context.Context, form models.Form) (models.Form, error) {
	const query = `
		INSERT INTO forms (
			id, owner_id, title, description, is_active, is_published, start_at, end_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
		)
		RETURNING ` + formColumns

	return scanForm(r.pool.QueryRow(ctx, query,
		form.ID,
		form.OwnerID,
		form.Title,
		form.Description,
		form.IsActive,
		form.IsPublished,
		form.StartAt,
		form.EndAt,
	))
}

// GetByID returns a live form. Soft-deleted forms report ErrFormNotFound.
func (r *FormRepository) GetByID(ctx context.Context, id string) (models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE id = $1 AND deleted_at IS NULL`
	return scanForm(r.pool.QueryRow(ctx, query, id))
}

func (r *FormRepository) List(ctx context.Context, filter models.FormFilter) (models.FormPage, error) {
	where, args := formWhere(filter)

	page := models.FormPage{Items: []models.Form{}}
	countQuery := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM forms` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&page.Total, &page.ActiveTotal); err != nil {
		return models.FormPage{}, fmt.Errorf("count forms: %w", err)
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	orderBy := "created_at"
	if filter.Sort == models.FormSortTitle {
		orderBy = "LOWER(title)"
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM forms%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		formColumns, where, orderBy, direction, direction, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return models.FormPage{}, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return models.FormPage{}, err
		}
		page.Items = append(page.Items, form)
	}
	return page, rows.Err()
}

func formWhere(filter models.FormFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if !filter.IncludeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if filter.OwnerID != "" {
		add("owner_id = $%d", filter.OwnerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		add("title ILIKE '%%' || $%d || '%%'", escapeLike(search))
	}
	switch filter.Status {
	case models.FormStatusActive:
		conds = append(conds, "is_active")
	case models.FormStatusInactive:
		conds = append(conds, "NOT is_active")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *FormRepository) Update(ctx context.Context, form models.Form) (models.Form, error) {
	const query = `
		UPDATE forms
		SET title = $2,
		    description = $3,
		    is_active = $4,
		    is_published = $5,
		    start_at = $6,
		    end_at = $7,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + formColumns

	return scanForm(r.pool.QueryRow(ctx, query,
		form.ID,
		form.Title,
		form.Description,
		form.IsActive,
		form.IsPublished,
		form.StartAt,
		form.EndAt,
	))
}

func (r *FormRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE forms
		SET deleted_at = $2, is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFormNotFound
	}
	return nil
}

func scanForm(row pgx.Row) (models.Form, error) {
	var form models.Form
	if err := row.Scan(
		&form.ID,
		&form.OwnerID,
		&form.Title,
		&form.Description,
		&form.IsActive,
		&form.IsPublished,
		&form.StartAt,
		&form.EndAt,
		&form.DeletedAt,
		&form.CreatedAt,
		&form.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Form{}, ErrFormNotFound
		}
		return models.Form{}, err
	}
	return form, nil
}
