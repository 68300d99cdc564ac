package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kriwitj/nso-forms/internal/models"
)

type SubmissionRepository struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create stores the submission and all of its answers in one transaction.
func (r *SubmissionRepository) Create(ctx context.Context, submission models.Submission) (models.Submission, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Submission{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertSubmission = `
		INSERT INTO submissions (id, form_id, ip_address, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, insertSubmission,
		submission.ID,
		submission.FormID,
		submission.IPAddress,
	).Scan(&submission.CreatedAt); err != nil {
		return models.Submission{}, fmt.Errorf("insert submission: %w", err)
	}

	const insertAnswer = `
		INSERT INTO answers (id, submission_id, question_id, question_text, value, selections, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	batch := &pgx.Batch{}
	for i := range submission.Answers {
		answer := &submission.Answers[i]
		answer.SubmissionID = submission.ID
		batch.Queue(insertAnswer,
			answer.ID,
			answer.SubmissionID,
			answer.QuestionID,
			answer.QuestionText,
			answer.Value,
			nonNil(answer.Selections),
			i,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return models.Submission{}, fmt.Errorf("insert answers: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Submission{}, fmt.Errorf("commit: %w", err)
	}
	return submission, nil
}

// ListByForm returns the form's submissions with their answers, oldest first
// unless newestFirst is set.
func (r *SubmissionRepository) ListByForm(ctx context.Context, formID string, newestFirst bool) ([]models.Submission, error) {
	direction := "ASC"
	if newestFirst {
		direction = "DESC"
	}
	query := fmt.Sprintf(`
		SELECT id, form_id, ip_address, created_at
		FROM submissions
		WHERE form_id = $1
		ORDER BY created_at %s, id %s
	`, direction, direction)

	rows, err := r.pool.Query(ctx, query, formID)
	if err != nil {
		return nil, err
	}

	submissions := []models.Submission{}
	index := map[string]int{}
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.FormID, &s.IPAddress, &s.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		index[s.ID] = len(submissions)
		submissions = append(submissions, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(submissions) == 0 {
		return submissions, nil
	}

	const answerQuery = `
		SELECT a.id, a.submission_id, a.question_id, a.question_text, a.value, a.selections
		FROM answers a
		JOIN submissions s ON s.id = a.submission_id
		WHERE s.form_id = $1
		ORDER BY a.submission_id, a.position
	`
	answerRows, err := r.pool.Query(ctx, answerQuery, formID)
	if err != nil {
		return nil, err
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var a models.Answer
		if err := answerRows.Scan(&a.ID, &a.SubmissionID, &a.QuestionID, &a.QuestionText, &a.Value, &a.Selections); err != nil {
			return nil, err
		}
		if i, ok := index[a.SubmissionID]; ok {
			submissions[i].Answers = append(submissions[i].Answers, a)
		}
	}
	return submissions, answerRows.Err()
}

func (r *SubmissionRepository) CountByForm(ctx context.Context, formID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM submissions WHERE form_id = $1`, formID).Scan(&count)
	return count, err
}
