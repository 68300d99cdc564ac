// Package testutil provides in-memory stand-ins for the PostgreSQL
// repositories, the object store and the job stream.
package testutil

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/repository"
)

// Store holds every table in memory. Use the accessors to get a value that
// satisfies one repository interface.
type Store struct {
	mu          sync.Mutex
	clock       time.Time
	users       map[string]models.User
	sessions    map[string]models.Session
	forms       map[string]models.Form
	questions   map[string]models.Question
	submissions []models.Submission
	exports     map[string]models.Export
}

func NewStore() *Store {
	return &Store{
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:     map[string]models.User{},
		sessions:  map[string]models.Session{},
		forms:     map[string]models.Form{},
		questions: map[string]models.Question{},
		exports:   map[string]models.Export{},
	}
}

// tick hands out strictly increasing timestamps so ordering by creation is
// deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Users() *UserStore             { return &UserStore{s} }
func (s *Store) Sessions() *SessionStore       { return &SessionStore{s} }
func (s *Store) Forms() *FormStore             { return &FormStore{s} }
func (s *Store) Questions() *QuestionStore     { return &QuestionStore{s} }
func (s *Store) Submissions() *SubmissionStore { return &SubmissionStore{s} }
func (s *Store) Exports() *ExportStore         { return &ExportStore{s} }

type UserStore struct{ s *Store }

func (u *UserStore) emailTaken(email string) bool {
	for _, existing := range u.s.users {
		if strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

func (u *UserStore) insert(user models.User) (models.User, error) {
	if u.emailTaken(user.Email) {
		return models.User{}, repository.ErrEmailExists
	}
	now := u.s.tick()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.ThemePreference == "" {
		user.ThemePreference = models.ThemeSystem
	}
	u.s.users[user.ID] = user
	return user, nil
}

func (u *UserStore) CreateRegistrant(_ context.Context, user models.User) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if len(u.s.users) == 0 {
		user.Role = models.UserRoleAdmin
		user.IsApproved = true
	} else {
		user.Role = models.UserRoleUser
		user.IsApproved = false
	}
	return u.insert(user)
}

func (u *UserStore) Create(_ context.Context, user models.User) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	return u.insert(user)
}

func (u *UserStore) UpsertAdmin(_ context.Context, user models.User) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for id, existing := range u.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			existing.Name = user.Name
			existing.PasswordHash = user.PasswordHash
			existing.Role = models.UserRoleAdmin
			existing.IsApproved = true
			existing.UpdatedAt = u.s.tick()
			u.s.users[id] = existing
			return existing, nil
		}
	}
	user.Role = models.UserRoleAdmin
	user.IsApproved = true
	return u.insert(user)
}

func (u *UserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, user := range u.s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (u *UserStore) GetByID(_ context.Context, id string) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (u *UserStore) List(_ context.Context) ([]models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	users := make([]models.User, 0, len(u.s.users))
	for _, user := range u.s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (u *UserStore) Update(_ context.Context, user models.User) (models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	existing, ok := u.s.users[user.ID]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	user.Email = existing.Email
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = u.s.tick()
	u.s.users[user.ID] = user
	return user, nil
}

func (u *UserStore) Delete(_ context.Context, id string) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, ok := u.s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(u.s.users, id)
	for key, session := range u.s.sessions {
		if session.UserID == id {
			delete(u.s.sessions, key)
		}
	}
	for formID, form := range u.s.forms {
		if form.OwnedBy(id) {
			form.OwnerID = nil
			u.s.forms[formID] = form
		}
	}
	return nil
}

type SessionStore struct{ s *Store }

func (ss *SessionStore) Create(_ context.Context, session models.Session) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	session.CreatedAt = ss.s.tick()
	ss.s.sessions[string(session.TokenHash)] = session
	return nil
}

func (ss *SessionStore) FindByTokenHash(_ context.Context, tokenHash []byte) (models.Session, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	session, ok := ss.s.sessions[string(tokenHash)]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (ss *SessionStore) DeleteByTokenHash(_ context.Context, tokenHash []byte) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	delete(ss.s.sessions, string(tokenHash))
	return nil
}

func (ss *SessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	var removed int64
	for key, session := range ss.s.sessions {
		if session.Expired(now) {
			delete(ss.s.sessions, key)
			removed++
		}
	}
	return removed, nil
}

// Count reports the number of stored sessions.
func (ss *SessionStore) Count() int {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()
	return len(ss.s.sessions)
}

// Expire moves every session of userID into the past.
func (ss *SessionStore) Expire(userID string) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	for key, session := range ss.s.sessions {
		if session.UserID == userID {
			session.ExpiresAt = time.Now().Add(-time.Minute)
			ss.s.sessions[key] = session
		}
	}
}

type FormStore struct{ s *Store }

func (f *FormStore) Create(_ context.Context, form models.Form) (models.Form, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	now := f.s.tick()
	form.CreatedAt = now
	form.UpdatedAt = now
	f.s.forms[form.ID] = form
	return form, nil
}

func (f *FormStore) GetByID(_ context.Context, id string) (models.Form, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	form, ok := f.s.forms[id]
	if !ok || form.Deleted() {
		return models.Form{}, repository.ErrFormNotFound
	}
	return form, nil
}

func (f *FormStore) List(_ context.Context, filter models.FormFilter) (models.FormPage, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	search := strings.ToLower(filter.Search)
	matched := make([]models.Form, 0)
	for _, form := range f.s.forms {
		if form.Deleted() && !filter.IncludeDeleted {
			continue
		}
		if filter.OwnerID != "" && !form.OwnedBy(filter.OwnerID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(form.Title), search) {
			continue
		}
		switch filter.Status {
		case models.FormStatusActive:
			if !form.IsActive {
				continue
			}
		case models.FormStatusInactive:
			if form.IsActive {
				continue
			}
		}
		matched = append(matched, form)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		if filter.Sort == models.FormSortTitle {
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at == bt {
				less = a.ID < b.ID
			} else {
				less = at < bt
			}
		} else {
			if a.CreatedAt.Equal(b.CreatedAt) {
				less = a.ID < b.ID
			} else {
				less = a.CreatedAt.Before(b.CreatedAt)
			}
		}
		if filter.Descending {
			return !less
		}
		return less
	})

	page := models.FormPage{Total: len(matched)}
	for _, form := range matched {
		if form.IsActive {
			page.ActiveTotal++
		}
	}

	start := min(filter.Offset, len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}
	page.Items = slices.Clone(matched[start:end])
	return page, nil
}

func (f *FormStore) Update(_ context.Context, form models.Form) (models.Form, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	existing, ok := f.s.forms[form.ID]
	if !ok || existing.Deleted() {
		return models.Form{}, repository.ErrFormNotFound
	}
	form.OwnerID = existing.OwnerID
	form.CreatedAt = existing.CreatedAt
	form.DeletedAt = existing.DeletedAt
	form.UpdatedAt = f.s.tick()
	f.s.forms[form.ID] = form
	return form, nil
}

func (f *FormStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	form, ok := f.s.forms[id]
	if !ok || form.Deleted() {
		return repository.ErrFormNotFound
	}
	form.DeletedAt = &at
	form.IsActive = false
	form.UpdatedAt = at
	f.s.forms[id] = form
	return nil
}

type QuestionStore struct{ s *Store }

func (q *QuestionStore) ListByForm(_ context.Context, formID string) ([]models.Question, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	questions := make([]models.Question, 0)
	for _, question := range q.s.questions {
		if question.FormID == formID {
			questions = append(questions, question)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Order == questions[j].Order {
			return questions[i].CreatedAt.Before(questions[j].CreatedAt)
		}
		return questions[i].Order < questions[j].Order
	})
	return questions, nil
}

func (q *QuestionStore) GetByID(_ context.Context, formID string, id string) (models.Question, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	question, ok := q.s.questions[id]
	if !ok || question.FormID != formID {
		return models.Question{}, repository.ErrQuestionNotFound
	}
	return question, nil
}

func (q *QuestionStore) Append(_ context.Context, question models.Question) (models.Question, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	count := 0
	for _, existing := range q.s.questions {
		if existing.FormID == question.FormID {
			count++
		}
	}
	question.Order = count
	question.CreatedAt = q.s.tick()
	question.Options = slices.Clone(question.Options)
	q.s.questions[question.ID] = question
	return question, nil
}

func (q *QuestionStore) Update(_ context.Context, question models.Question) (models.Question, error) {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	existing, ok := q.s.questions[question.ID]
	if !ok || existing.FormID != question.FormID {
		return models.Question{}, repository.ErrQuestionNotFound
	}
	question.CreatedAt = existing.CreatedAt
	question.Options = slices.Clone(question.Options)
	q.s.questions[question.ID] = question
	return question, nil
}

func (q *QuestionStore) Delete(_ context.Context, formID string, id string) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()

	existing, ok := q.s.questions[id]
	if !ok || existing.FormID != formID {
		return repository.ErrQuestionNotFound
	}
	delete(q.s.questions, id)
	return nil
}

type SubmissionStore struct{ s *Store }

func (ss *SubmissionStore) Create(_ context.Context, submission models.Submission) (models.Submission, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	submission.CreatedAt = ss.s.tick()
	answers := make([]models.Answer, len(submission.Answers))
	for i, answer := range submission.Answers {
		answer.SubmissionID = submission.ID
		answer.Selections = slices.Clone(answer.Selections)
		answers[i] = answer
	}
	submission.Answers = answers
	ss.s.submissions = append(ss.s.submissions, submission)
	return submission, nil
}

func (ss *SubmissionStore) ListByForm(_ context.Context, formID string, newestFirst bool) ([]models.Submission, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	out := make([]models.Submission, 0)
	for _, submission := range ss.s.submissions {
		if submission.FormID == formID {
			submission.Answers = slices.Clone(submission.Answers)
			out = append(out, submission)
		}
	}
	if newestFirst {
		slices.Reverse(out)
	}
	return out, nil
}

func (ss *SubmissionStore) CountByForm(_ context.Context, formID string) (int, error) {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	count := 0
	for _, submission := range ss.s.submissions {
		if submission.FormID == formID {
			count++
		}
	}
	return count, nil
}

type ExportStore struct{ s *Store }

func (e *ExportStore) Create(_ context.Context, record models.Export) (models.Export, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	record.CreatedAt = e.s.tick()
	e.s.exports[record.ID] = record
	return record, nil
}

func (e *ExportStore) GetByID(_ context.Context, id string) (models.Export, error) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	record, ok := e.s.exports[id]
	if !ok {
		return models.Export{}, repository.ErrExportNotFound
	}
	return record, nil
}

func (e *ExportStore) MarkReady(_ context.Context, id string, objectKey string, size int64, at time.Time) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	record, ok := e.s.exports[id]
	if !ok {
		return repository.ErrExportNotFound
	}
	record.Status = models.ExportStatusReady
	record.ObjectKey = objectKey
	record.SizeBytes = size
	record.Error = ""
	record.CompletedAt = &at
	e.s.exports[id] = record
	return nil
}

func (e *ExportStore) MarkFailed(_ context.Context, id string, reason string, at time.Time) error {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()

	record, ok := e.s.exports[id]
	if !ok {
		return repository.ErrExportNotFound
	}
	record.Status = models.ExportStatusFailed
	record.Error = reason
	record.CompletedAt = &at
	e.s.exports[id] = record
	return nil
}
