package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/export"
	"github.com/kriwitj/nso-forms/internal/ids"
	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/queue"
	"github.com/kriwitj/nso-forms/internal/repository"
	"github.com/kriwitj/nso-forms/internal/security"
	"github.com/kriwitj/nso-forms/internal/storage"
)

const downloadPathPrefix = "/api/v1/downloads/"

type ExportService struct {
	forms       FormStore
	questions   QuestionStore
	submissions SubmissionStore
	exports     ExportStore
	blobs       BlobStore
	queue       JobQueue
	secret      []byte
	ticketTTL   time.Duration
	loc         *time.Location
	log         zerolog.Logger
	now         func() time.Time
}

type ExportServiceOptions struct {
	Forms       FormStore
	Questions   QuestionStore
	Submissions SubmissionStore
	Exports     ExportStore
	Blobs       BlobStore
	// Queue may be nil; archived exports are then rendered inline.
	Queue     JobQueue
	Secret    []byte
	TicketTTL time.Duration
	TimeZone  string
	Logger    zerolog.Logger
}

func NewExportService(opts ExportServiceOptions) *ExportService {
	return &ExportService{
		forms:       opts.Forms,
		questions:   opts.Questions,
		submissions: opts.Submissions,
		exports:     opts.Exports,
		blobs:       opts.Blobs,
		queue:       opts.Queue,
		secret:      opts.Secret,
		ticketTTL:   opts.TicketTTL,
		loc:         export.LoadLocation(opts.TimeZone),
		log:         opts.Logger,
		now:         time.Now,
	}
}

// Rendered is an export file ready to be sent to the client.
type Rendered struct {
	Format      models.ExportFormat
	FileName    string
	ContentType string
	Body        []byte
}

// Render builds the export for formID synchronously.
func (s *ExportService) Render(ctx context.Context, actor models.User, formID string, format string) (Rendered, error) {
	parsed, ok := export.ParseFormat(format)
	if !ok {
		return Rendered{}, ErrInvalidFormat
	}
	form, err := authorizeForm(ctx, s.forms, actor, formID)
	if err != nil {
		return Rendered{}, err
	}
	return s.render(ctx, form, parsed)
}

func (s *ExportService) render(ctx context.Context, form models.Form, format models.ExportFormat) (Rendered, error) {
	questions, err := s.questions.ListByForm(ctx, form.ID)
	if err != nil {
		return Rendered{}, fmt.Errorf("list questions: %w", err)
	}
	submissions, err := s.submissions.ListByForm(ctx, form.ID, false)
	if err != nil {
		return Rendered{}, fmt.Errorf("list submissions: %w", err)
	}

	var buf bytes.Buffer
	table := export.BuildTable(questions, submissions, s.loc)
	if err := export.Write(&buf, format, form.Title, table); err != nil {
		return Rendered{}, fmt.Errorf("write export: %w", err)
	}

	return Rendered{
		Format:      format,
		FileName:    export.FileName(form.ID, format),
		ContentType: export.ContentType(format),
		Body:        buf.Bytes(),
	}, nil
}

// Request records an archived export and hands it to the worker.
func (s *ExportService) Request(ctx context.Context, actor models.User, formID string, format string) (models.Export, error) {
	parsed, ok := export.ParseFormat(format)
	if !ok {
		return models.Export{}, ErrInvalidFormat
	}
	if _, err := authorizeForm(ctx, s.forms, actor, formID); err != nil {
		return models.Export{}, err
	}

	record, err := s.exports.Create(ctx, models.Export{
		ID:          ids.New(),
		FormID:      formID,
		RequestedBy: actor.ID,
		Format:      parsed,
		Status:      models.ExportStatusPending,
	})
	if err != nil {
		return models.Export{}, fmt.Errorf("create export: %w", err)
	}

	if s.queue == nil {
		if err := s.Process(ctx, record.ID); err != nil {
			s.log.Warn().Err(err).Str("export_id", record.ID).Msg("inline export failed")
		}
		return s.exports.GetByID(ctx, record.ID)
	}

	if err := s.queue.Enqueue(ctx, queue.Job{Type: queue.TaskExport, ExportID: record.ID}); err != nil {
		return models.Export{}, fmt.Errorf("enqueue export: %w", err)
	}
	return record, nil
}

type ExportView struct {
	Export      models.Export
	DownloadURL string
}

func (s *ExportService) Get(ctx context.Context, actor models.User, formID string, exportID string) (ExportView, error) {
	if _, err := authorizeForm(ctx, s.forms, actor, formID); err != nil {
		return ExportView{}, err
	}

	record, err := s.exports.GetByID(ctx, exportID)
	if err != nil {
		if errors.Is(err, repository.ErrExportNotFound) {
			return ExportView{}, ErrNotFound
		}
		return ExportView{}, err
	}
	if record.FormID != formID {
		return ExportView{}, ErrNotFound
	}

	view := ExportView{Export: record}
	if record.Status == models.ExportStatusReady {
		ticket, err := security.IssueDownloadTicket(s.secret, record.ID, record.FormID, actor.ID, s.ticketTTL)
		if err != nil {
			return ExportView{}, err
		}
		view.DownloadURL = downloadPathPrefix + ticket
	}
	return view, nil
}

// Process renders a pending export and stores it. Failures are recorded on
// the export before being returned.
func (s *ExportService) Process(ctx context.Context, exportID string) error {
	record, err := s.exports.GetByID(ctx, exportID)
	if err != nil {
		return fmt.Errorf("load export: %w", err)
	}
	if record.Status == models.ExportStatusReady {
		return nil
	}

	if err := s.process(ctx, record); err != nil {
		s.log.Error().Err(err).Str("export_id", record.ID).Str("form_id", record.FormID).Msg("export failed")
		if markErr := s.exports.MarkFailed(ctx, record.ID, err.Error(), s.now()); markErr != nil {
			return errors.Join(err, markErr)
		}
		return err
	}
	return nil
}

func (s *ExportService) process(ctx context.Context, record models.Export) error {
	form, err := s.forms.GetByID(ctx, record.FormID)
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}

	rendered, err := s.render(ctx, form, record.Format)
	if err != nil {
		return err
	}

	key := objectKey(record)
	size := int64(len(rendered.Body))
	if err := s.blobs.Put(ctx, key, bytes.NewReader(rendered.Body), size, rendered.ContentType); err != nil {
		return fmt.Errorf("store export: %w", err)
	}
	if err := s.exports.MarkReady(ctx, record.ID, key, size, s.now()); err != nil {
		return fmt.Errorf("mark export ready: %w", err)
	}

	s.log.Info().Str("export_id", record.ID).Int64("size", size).Msg("export stored")
	return nil
}

func objectKey(record models.Export) string {
	ext := "csv"
	if record.Format == models.ExportFormatXLSX {
		ext = "xls"
	}
	return fmt.Sprintf("exports/%s/%s.%s", record.FormID, record.ID, ext)
}

// Download is an archived export opened for streaming.
type Download struct {
	Body        io.ReadCloser
	Size        int64
	FileName    string
	ContentType string
}

// OpenDownload resolves a download ticket to its stored object.
func (s *ExportService) OpenDownload(ctx context.Context, ticket string) (Download, error) {
	claims, err := security.ParseDownloadTicket(ticket, s.secret)
	if err != nil {
		return Download{}, ErrInvalidTicket
	}

	record, err := s.exports.GetByID(ctx, claims.ExportID)
	if err != nil {
		if errors.Is(err, repository.ErrExportNotFound) {
			return Download{}, ErrNotFound
		}
		return Download{}, err
	}
	if record.FormID != claims.FormID {
		return Download{}, ErrInvalidTicket
	}
	if record.Status != models.ExportStatusReady {
		return Download{}, ErrExportNotReady
	}

	body, size, err := s.blobs.Open(ctx, record.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return Download{}, ErrNotFound
		}
		return Download{}, fmt.Errorf("open export: %w", err)
	}

	return Download{
		Body:        body,
		Size:        size,
		FileName:    export.FileName(record.FormID, record.Format),
		ContentType: export.ContentType(record.Format),
	}, nil
}
