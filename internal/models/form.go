package models

import "time"

type Form struct {
	ID          string
	OwnerID     *string
	Title       string
	Description string
	IsActive    bool
	IsPublished bool
	StartAt     *time.Time
	EndAt       *time.Time
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (f Form) OwnedBy(userID string) bool {
	return f.OwnerID != nil && *f.OwnerID == userID
}

func (f Form) Deleted() bool {
	return f.DeletedAt != nil
}

// Accepting reports whether the form takes submissions at now: it must be
// active and inside its optional [StartAt, EndAt] window.
func (f Form) Accepting(now time.Time) bool {
	if !f.IsActive || f.Deleted() {
		return false
	}
	if f.StartAt != nil && now.Before(*f.StartAt) {
		return false
	}
	if f.EndAt != nil && now.After(*f.EndAt) {
		return false
	}
	return true
}

type FormStatus string

const (
	FormStatusAll      FormStatus = "all"
	FormStatusActive   FormStatus = "active"
	FormStatusInactive FormStatus = "inactive"
)

type FormSort string

const (
	FormSortCreatedAt FormSort = "createdAt"
	FormSortTitle     FormSort = "title"
)

// FormFilter selects forms for listing. An empty OwnerID lists every owner.
type FormFilter struct {
	OwnerID        string
	Search         string
	Status         FormStatus
	Sort           FormSort
	Descending     bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}

type FormPage struct {
	Items       []Form
	Total       int
	ActiveTotal int
}

type QuestionType string

const (
	QuestionShort    QuestionType = "short"
	QuestionLong     QuestionType = "long"
	QuestionMultiple QuestionType = "multiple"
	QuestionCheckbox QuestionType = "checkbox"
	QuestionDropdown QuestionType = "dropdown"
	QuestionScale    QuestionType = "scale"
	QuestionDate     QuestionType = "date"
	QuestionTime     QuestionType = "time"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionShort, QuestionLong, QuestionMultiple, QuestionCheckbox,
		QuestionDropdown, QuestionScale, QuestionDate, QuestionTime:
		return true
	}
	return false
}

// HasOptions reports whether answers pick from the option list.
func (t QuestionType) HasOptions() bool {
	return t == QuestionMultiple || t == QuestionCheckbox || t == QuestionDropdown
}

type Question struct {
	ID        string
	FormID    string
	Text      string
	Type      QuestionType
	Options   []string
	Required  bool
	Order     int
	CreatedAt time.Time
}

type Submission struct {
	ID        string
	FormID    string
	IPAddress string
	CreatedAt time.Time
	Answers   []Answer
}

// Answer keeps a soft reference to its question plus the label it had when
// the submission was made.
type Answer struct {
	ID           string
	SubmissionID string
	QuestionID   string
	QuestionText string
	Value        string
	Selections   []string
}
