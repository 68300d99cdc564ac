package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kriwitj/nso-forms/internal/models"
)

var ErrQuestionNotFound = errors.New("question not found")

const questionColumns = `id, form_id, text, type, options, required, sort_order, created_at`

type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func (r *QuestionRepository) ListByForm(ctx context.Context, formID string) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE form_id = $1 ORDER BY sort_order ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) GetByID(ctx context.Context, formID string, id string) (models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE form_id = $1 AND id = $2`
	return scanQuestion(r.pool.QueryRow(ctx, query, formID, id))
}

// Append stores the question at the end of its form; its order is the number
// of questions the form already has.
func (r *QuestionRepository) Append(ctx context.Context, question models.Question) (models.Question, error) {
	const query = `
		INSERT INTO questions (id, form_id, text, type, options, required, sort_order, created_at)
		SELECT $1, $2, $3, $4, $5, $6, COUNT(*), NOW()
		FROM questions WHERE form_id = $2
		RETURNING ` + questionColumns

	return scanQuestion(r.pool.QueryRow(ctx, query,
		question.ID,
		question.FormID,
		question.Text,
		question.Type,
		nonNil(question.Options),
		question.Required,
	))
}

func (r *QuestionRepository) Update(ctx context.Context, question models.Question) (models.Question, error) {
	const query = `
		UPDATE questions
		SET text = $3,
		    type = $4,
		    options = $5,
		    required = $6,
		    sort_order = $7
		WHERE form_id = $1 AND id = $2
		RETURNING ` + questionColumns

	return scanQuestion(r.pool.QueryRow(ctx, query,
		question.FormID,
		question.ID,
		question.Text,
		question.Type,
		nonNil(question.Options),
		question.Required,
		question.Order,
	))
}

func (r *QuestionRepository) Delete(ctx context.Context, formID string, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE form_id = $1 AND id = $2`, formID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func scanQuestion(row pgx.Row) (models.Question, error) {
	var question models.Question
	if err := row.Scan(
		&question.ID,
		&question.FormID,
		&question.Text,
		&question.Type,
		&question.Options,
		&question.Required,
		&question.Order,
		&question.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Question{}, ErrQuestionNotFound
		}
		return models.Question{}, err
	}
	return question, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
