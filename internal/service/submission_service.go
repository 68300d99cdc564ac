package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/ids"
	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/repository"
)

const selectionSeparator = ", "

type SubmissionService struct {
	forms       FormStore
	questions   QuestionStore
	submissions SubmissionStore
	limiter     SubmitLimiter
	log         zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService builds the service. limiter may be nil, which turns
// throttling off.
func NewSubmissionService(
	forms FormStore,
	questions QuestionStore,
	submissions SubmissionStore,
	limiter SubmitLimiter,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		forms:       forms,
		questions:   questions,
		submissions: submissions,
		limiter:     limiter,
		log:         log,
		now:         time.Now,
	}
}

// AnswerInput is one respondent value. Multi-value answers fill Selections.
type AnswerInput struct {
	Value      string
	Selections []string
}

func (a AnswerInput) blank() bool {
	if strings.TrimSpace(a.Value) != "" {
		return false
	}
	for _, s := range a.Selections {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

type SubmitInput struct {
	// Actor is nil for anonymous respondents.
	Actor     *models.User
	Answers   map[string]AnswerInput
	IPAddress string
}

// Submit records one response. Unpublished forms are only reachable by their
// owner or an admin, who may submit as a preview.
func (s *SubmissionService) Submit(ctx context.Context, formID string, input SubmitInput) (models.Submission, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return models.Submission{}, ErrNotFound
		}
		return models.Submission{}, err
	}
	if form.Deleted() {
		return models.Submission{}, ErrNotFound
	}
	if !form.IsPublished && !canPreview(input.Actor, form) {
		return models.Submission{}, ErrNotFound
	}
	if !form.Accepting(s.now()) {
		return models.Submission{}, ErrFormClosed
	}

	questions, err := s.questions.ListByForm(ctx, formID)
	if err != nil {
		return models.Submission{}, fmt.Errorf("list questions: %w", err)
	}

	answers := make([]models.Answer, 0, len(questions))
	for _, q := range questions {
		in := input.Answers[q.ID]
		if q.Required && in.blank() {
			return models.Submission{}, ErrMissingRequired
		}
		answers = append(answers, buildAnswer(q, in))
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, formID, input.IPAddress)
		if err != nil {
			s.log.Warn().Err(err).Str("form_id", formID).Msg("submit throttle unavailable")
		} else if !allowed {
			return models.Submission{}, ErrTooManyRequests
		}
	}

	submission, err := s.submissions.Create(ctx, models.Submission{
		ID:        ids.New(),
		FormID:    formID,
		IPAddress: input.IPAddress,
		Answers:   answers,
	})
	if err != nil {
		return models.Submission{}, fmt.Errorf("create submission: %w", err)
	}

	s.log.Debug().Str("form_id", formID).Str("submission_id", submission.ID).Msg("submission recorded")
	return submission, nil
}

func canPreview(actor *models.User, form models.Form) bool {
	if actor == nil || !actor.IsApproved {
		return false
	}
	return actor.IsAdmin() || form.OwnedBy(actor.ID)
}

func buildAnswer(q models.Question, in AnswerInput) models.Answer {
	answer := models.Answer{
		ID:           ids.New(),
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Value:        strings.TrimSpace(in.Value),
	}
	if len(in.Selections) > 0 {
		answer.Selections = cleanOptions(in.Selections)
		answer.Value = strings.Join(answer.Selections, selectionSeparator)
	}
	return answer
}

type QuestionSummary struct {
	QuestionID string
	Text       string
	Answered   int
}

type SubmissionList struct {
	Items   []models.Submission
	Total   int
	Summary []QuestionSummary
}

// ListSubmissions returns responses newest first plus answered counts per
// current question.
func (s *SubmissionService) ListSubmissions(ctx context.Context, actor models.User, formID string) (SubmissionList, error) {
	if _, err := authorizeForm(ctx, s.forms, actor, formID); err != nil {
		return SubmissionList{}, err
	}

	submissions, err := s.submissions.ListByForm(ctx, formID, true)
	if err != nil {
		return SubmissionList{}, fmt.Errorf("list submissions: %w", err)
	}
	questions, err := s.questions.ListByForm(ctx, formID)
	if err != nil {
		return SubmissionList{}, fmt.Errorf("list questions: %w", err)
	}
	total, err := s.submissions.CountByForm(ctx, formID)
	if err != nil {
		return SubmissionList{}, fmt.Errorf("count submissions: %w", err)
	}

	return SubmissionList{Items: submissions, Total: total, Summary: summarize(questions, submissions)}, nil
}

func summarize(questions []models.Question, submissions []models.Submission) []QuestionSummary {
	counts := make(map[string]int, len(questions))
	for _, sub := range submissions {
		for _, a := range sub.Answers {
			if strings.TrimSpace(a.Value) != "" {
				counts[a.QuestionID]++
			}
		}
	}

	summary := make([]QuestionSummary, 0, len(questions))
	for _, q := range questions {
		summary = append(summary, QuestionSummary{QuestionID: q.ID, Text: q.Text, Answered: counts[q.ID]})
	}
	return summary
}
