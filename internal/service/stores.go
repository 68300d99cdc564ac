package service

import (
	"context"
	"io"
	"time"

	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/queue"
)

type UserStore interface {
	CreateRegistrant(ctx context.Context, user models.User) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	UpsertAdmin(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user models.User) (models.User, error)
	Delete(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByTokenHash(ctx context.Context, tokenHash []byte) (models.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash []byte) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type FormStore interface {
	Create(ctx context.Context, form models.Form) (models.Form, error)
	GetByID(ctx context.Context, id string) (models.Form, error)
	List(ctx context.Context, filter models.FormFilter) (models.FormPage, error)
	Update(ctx context.Context, form models.Form) (models.Form, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

type QuestionStore interface {
	ListByForm(ctx context.Context, formID string) ([]models.Question, error)
	GetByID(ctx context.Context, formID string, id string) (models.Question, error)
	Append(ctx context.Context, question models.Question) (models.Question, error)
	Update(ctx context.Context, question models.Question) (models.Question, error)
	Delete(ctx context.Context, formID string, id string) error
}

type SubmissionStore interface {
	Create(ctx context.Context, submission models.Submission) (models.Submission, error)
	ListByForm(ctx context.Context, formID string, newestFirst bool) ([]models.Submission, error)
	CountByForm(ctx context.Context, formID string) (int, error)
}

type ExportStore interface {
	Create(ctx context.Context, export models.Export) (models.Export, error)
	GetByID(ctx context.Context, id string) (models.Export, error)
	MarkReady(ctx context.Context, id string, objectKey string, size int64, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, at time.Time) error
}

// SubmitLimiter rate-limits public submissions per form and client.
type SubmitLimiter interface {
	Allow(ctx context.Context, formID string, clientKey string) (bool, error)
}

type JobQueue interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
}
