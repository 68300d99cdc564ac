package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/config"
	"github.com/kriwitj/nso-forms/internal/export"
	"github.com/kriwitj/nso-forms/internal/ids"
	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/repository"
)

const (
	DefaultFormTitle     = "แบบฟอร์มใหม่"
	DefaultQuestionText  = "คำถามใหม่"
	defaultOptionPattern = "ตัวเลือก %d"
	defaultOptionCount   = 3
)

type FormService struct {
	forms     FormStore
	questions QuestionStore
	cfg       config.FormsConfig
	loc       *time.Location
	log       zerolog.Logger
	now       func() time.Time
}

func NewFormService(
	forms FormStore,
	questions QuestionStore,
	cfg config.FormsConfig,
	log zerolog.Logger,
) *FormService {
	return &FormService{
		forms:     forms,
		questions: questions,
		cfg:       cfg,
		loc:       export.LoadLocation(cfg.TimeZone),
		log:       log,
		now:       time.Now,
	}
}

// FormDetail is a form together with its questions in display order.
type FormDetail struct {
	Form      models.Form
	Questions []models.Question
}

// authorizeForm resolves a live form and checks that actor may manage it.
// A missing form is reported before ownership so callers can tell 404 from
// 403.
func authorizeForm(ctx context.Context, forms FormStore, actor models.User, formID string) (models.Form, error) {
	form, err := forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return models.Form{}, ErrNotFound
		}
		return models.Form{}, err
	}
	if form.Deleted() {
		return models.Form{}, ErrNotFound
	}
	if actor.IsAdmin() || form.OwnedBy(actor.ID) {
		return form, nil
	}
	return models.Form{}, ErrForbidden
}

type ListFormsQuery struct {
	Limit          int
	Page           int
	Search         string
	Status         string
	Sort           string
	Order          string
	IncludeDeleted bool
}

type FormList struct {
	Items       []models.Form
	Total       int
	ActiveTotal int
	Limit       int
	Page        int
}

// ListForms returns one page of the forms actor can see. Non-admins are
// scoped to their own forms and never see deleted ones.
func (s *FormService) ListForms(ctx context.Context, actor models.User, query ListFormsQuery) (FormList, error) {
	limit := query.Limit
	if !slices.Contains(s.cfg.PageSizes, limit) {
		limit = s.cfg.DefaultPageSize
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	filter := models.FormFilter{
		Search:     strings.TrimSpace(query.Search),
		Status:     parseStatus(query.Status),
		Sort:       parseSort(query.Sort),
		Descending: !strings.EqualFold(query.Order, "asc"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if actor.IsAdmin() {
		filter.IncludeDeleted = query.IncludeDeleted
	} else {
		filter.OwnerID = actor.ID
	}

	result, err := s.forms.List(ctx, filter)
	if err != nil {
		return FormList{}, fmt.Errorf("list forms: %w", err)
	}

	return FormList{
		Items:       result.Items,
		Total:       result.Total,
		ActiveTotal: result.ActiveTotal,
		Limit:       limit,
		Page:        page,
	}, nil
}

func parseStatus(value string) models.FormStatus {
	switch models.FormStatus(strings.ToLower(value)) {
	case models.FormStatusActive:
		return models.FormStatusActive
	case models.FormStatusInactive:
		return models.FormStatusInactive
	}
	return models.FormStatusAll
}

func parseSort(value string) models.FormSort {
	if models.FormSort(value) == models.FormSortTitle {
		return models.FormSortTitle
	}
	return models.FormSortCreatedAt
}

type CreateFormInput struct {
	Title       string
	Description string
}

func (s *FormService) CreateForm(ctx context.Context, actor models.User, input CreateFormInput) (models.Form, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultFormTitle
	}
	ownerID := actor.ID

	form, err := s.forms.Create(ctx, models.Form{
		ID:          ids.New(),
		OwnerID:     &ownerID,
		Title:       title,
		Description: input.Description,
		IsActive:    true,
	})
	if err != nil {
		return models.Form{}, fmt.Errorf("create form: %w", err)
	}

	s.log.Info().Str("form_id", form.ID).Str("owner_id", actor.ID).Msg("form created")
	return form, nil
}

func (s *FormService) GetForm(ctx context.Context, actor models.User, formID string) (FormDetail, error) {
	form, err := authorizeForm(ctx, s.forms, actor, formID)
	if err != nil {
		return FormDetail{}, err
	}
	return s.withQuestions(ctx, form)
}

// PublicForm returns a published, live form to anonymous readers.
func (s *FormService) PublicForm(ctx context.Context, formID string) (FormDetail, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return FormDetail{}, ErrNotFound
		}
		return FormDetail{}, err
	}
	if form.Deleted() || !form.IsPublished {
		return FormDetail{}, ErrNotFound
	}
	return s.withQuestions(ctx, form)
}

func (s *FormService) withQuestions(ctx context.Context, form models.Form) (FormDetail, error) {
	questions, err := s.questions.ListByForm(ctx, form.ID)
	if err != nil {
		return FormDetail{}, fmt.Errorf("list questions: %w", err)
	}
	return FormDetail{Form: form, Questions: questions}, nil
}

// TimePatch is a nullable timestamp field of a PATCH body. Set without a
// Value clears the field.
type TimePatch struct {
	Set   bool
	Value *string
}

type FormPatch struct {
	Title       *string
	Description *string
	IsActive    *bool
	IsPublished *bool
	StartAt     TimePatch
	EndAt       TimePatch
}

func (s *FormService) UpdateForm(ctx context.Context, actor models.User, formID string, patch FormPatch) (models.Form, error) {
	form, err := authorizeForm(ctx, s.forms, actor, formID)
	if err != nil {
		return models.Form{}, err
	}

	if patch.Title != nil {
		form.Title = strings.TrimSpace(*patch.Title)
		if form.Title == "" {
			form.Title = DefaultFormTitle
		}
	}
	if patch.Description != nil {
		form.Description = *patch.Description
	}
	if patch.IsActive != nil {
		form.IsActive = *patch.IsActive
	}
	if patch.IsPublished != nil {
		form.IsPublished = *patch.IsPublished
	}
	if value, ok := s.applyTime(patch.StartAt, form.StartAt); ok {
		form.StartAt = value
	}
	if value, ok := s.applyTime(patch.EndAt, form.EndAt); ok {
		form.EndAt = value
	}

	if form.StartAt != nil && form.EndAt != nil && form.EndAt.Before(*form.StartAt) {
		return models.Form{}, ErrInvalidWindow
	}

	updated, err := s.forms.Update(ctx, form)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return models.Form{}, ErrNotFound
		}
		return models.Form{}, fmt.Errorf("update form: %w", err)
	}
	return updated, nil
}

// applyTime resolves a timestamp patch. Unparseable values are treated like
// absent ones.
func (s *FormService) applyTime(patch TimePatch, current *time.Time) (*time.Time, bool) {
	if !patch.Set {
		return current, false
	}
	if patch.Value == nil || strings.TrimSpace(*patch.Value) == "" {
		return nil, true
	}
	parsed, err := export.ParseLocalDateTime(strings.TrimSpace(*patch.Value), s.loc)
	if err != nil {
		return current, false
	}
	return &parsed, true
}

func (s *FormService) DeleteForm(ctx context.Context, actor models.User, formID string) error {
	if _, err := authorizeForm(ctx, s.forms, actor, formID); err != nil {
		return err
	}
	if err := s.forms.SoftDelete(ctx, formID, s.now()); err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete form: %w", err)
	}
	s.log.Info().Str("form_id", formID).Str("actor_id", actor.ID).Msg("form soft-deleted")
	return nil
}

type QuestionInput struct {
	Text     *string
	Type     *string
	Required *bool
	Options  []string
}

func (s *FormService) AddQuestion(ctx context.Context, actor models.User, formID string, input QuestionInput) (models.Question, error) {
	if _, err := authorizeForm(ctx, s.forms, actor, formID); err != nil {
		return models.Question{}, err
	}

	question := models.Question{
		ID:     ids.New(),
		FormID: formID,
		Text:   DefaultQuestionText,
		Type:   models.QuestionShort,
	}
	if input.Text != nil && strings.TrimSpace(*input.Text) != "" {
		question.Text = strings.TrimSpace(*input.Text)
	}
	if input.Type != nil {
		question.Type = models.QuestionType(*input.Type)
		if !question.Type.Valid() {
			return models.Question{}, ErrInvalidType
		}
	}
	if input.Required != nil {
		question.Required = *input.Required
	}
	if question.Type.HasOptions() {
		question.Options = cleanOptions(input.Options)
		if len(question.Options) == 0 {
			question.Options = defaultOptions()
		}
	}

	created, err := s.questions.Append(ctx, question)
	if err != nil {
		return models.Question{}, fmt.Errorf("add question: %w", err)
	}
	return created, nil
}

type QuestionPatch struct {
	Text     *string
	Type     *string
	Required *bool
	Order    *int
	Options  []string
	// OptionsSet distinguishes an explicit empty list from an absent one.
	OptionsSet bool
}

func (s *FormService) UpdateQuestion(ctx context.Context, actor models.User, formID string, questionID string, patch QuestionPatch) (models.Question, error) {
	if _, err := authorizeForm(ctx, s.forms, actor, formID); err != nil {
		return models.Question{}, err
	}

	question, err := s.questions.GetByID(ctx, formID, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return models.Question{}, ErrNotFound
		}
		return models.Question{}, err
	}

	if patch.Text != nil {
		question.Text = strings.TrimSpace(*patch.Text)
	}
	if patch.Required != nil {
		question.Required = *patch.Required
	}
	if patch.Order != nil {
		question.Order = *patch.Order
	}
	if patch.Type != nil {
		next := models.QuestionType(*patch.Type)
		if !next.Valid() {
			return models.Question{}, ErrInvalidType
		}
		if next != question.Type {
			question.Type = next
			question.Options = nil
		}
	}
	if patch.OptionsSet {
		question.Options = cleanOptions(patch.Options)
	}
	if !question.Type.HasOptions() {
		question.Options = nil
	}

	updated, err := s.questions.Update(ctx, question)
	if err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return models.Question{}, ErrNotFound
		}
		return models.Question{}, fmt.Errorf("update question: %w", err)
	}
	return updated, nil
}

func (s *FormService) DeleteQuestion(ctx context.Context, actor models.User, formID string, questionID string) error {
	if _, err := authorizeForm(ctx, s.forms, actor, formID); err != nil {
		return err
	}
	if err := s.questions.Delete(ctx, formID, questionID); err != nil {
		if errors.Is(err, repository.ErrQuestionNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func cleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, option := range options {
		if trimmed := strings.TrimSpace(option); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultOptions() []string {
	options := make([]string, defaultOptionCount)
	for i := range options {
		options[i] = fmt.Sprintf(defaultOptionPattern, i+1)
	}
	return options
}
