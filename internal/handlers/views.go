package handlers

import (
	"time"

	"github.com/kriwitj/nso-forms/internal/models"
	"github.com/kriwitj/nso-forms/internal/service"
)

type userResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	ThemePreference string    `json:"themePreference"`
	IsApproved      bool      `json:"isApproved"`
	CreatedAt       time.Time `json:"createdAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            string(u.Role),
		ThemePreference: string(u.ThemePreference),
		IsApproved:      u.IsApproved,
		CreatedAt:       u.CreatedAt,
	}
}

type questionResponse struct {
	ID        string    `json:"id"`
	FormID    string    `json:"formId"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	Options   []string  `json:"options"`
	Required  bool      `json:"required"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

func newQuestionResponse(q models.Question) questionResponse {
	options := q.Options
	if options == nil {
		options = []string{}
	}
	return questionResponse{
		ID:        q.ID,
		FormID:    q.FormID,
		Text:      q.Text,
		Type:      string(q.Type),
		Options:   options,
		Required:  q.Required,
		Order:     q.Order,
		CreatedAt: q.CreatedAt,
	}
}

type formResponse struct {
	ID          string             `json:"id"`
	OwnerID     *string            `json:"ownerId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	IsActive    bool               `json:"isActive"`
	IsPublished bool               `json:"isPublished"`
	StartAt     *time.Time         `json:"startAt"`
	EndAt       *time.Time         `json:"endAt"`
	DeletedAt   *time.Time         `json:"deletedAt"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Questions   []questionResponse `json:"questions,omitempty"`
}

func newFormResponse(f models.Form) formResponse {
	return formResponse{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Title:       f.Title,
		Description: f.Description,
		IsActive:    f.IsActive,
		IsPublished: f.IsPublished,
		StartAt:     f.StartAt,
		EndAt:       f.EndAt,
		DeletedAt:   f.DeletedAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func newFormDetailResponse(d service.FormDetail) formResponse {
	resp := newFormResponse(d.Form)
	resp.Questions = make([]questionResponse, 0, len(d.Questions))
	for _, q := range d.Questions {
		resp.Questions = append(resp.Questions, newQuestionResponse(q))
	}
	return resp
}

type answerResponse struct {
	ID           string   `json:"id"`
	QuestionID   string   `json:"questionId"`
	QuestionText string   `json:"questionText"`
	Value        string   `json:"value"`
	Selections   []string `json:"selections,omitempty"`
}

type submissionResponse struct {
	ID        string           `json:"id"`
	FormID    string           `json:"formId"`
	CreatedAt time.Time        `json:"createdAt"`
	Answers   []answerResponse `json:"answers"`
}

func newSubmissionResponse(s models.Submission) submissionResponse {
	answers := make([]answerResponse, 0, len(s.Answers))
	for _, a := range s.Answers {
		answers = append(answers, answerResponse{
			ID:           a.ID,
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			Value:        a.Value,
			Selections:   a.Selections,
		})
	}
	return submissionResponse{ID: s.ID, FormID: s.FormID, CreatedAt: s.CreatedAt, Answers: answers}
}

type exportResponse struct {
	ID          string     `json:"id"`
	FormID      string     `json:"formId"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	SizeBytes   int64      `json:"sizeBytes"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
	DownloadURL string     `json:"downloadUrl,omitempty"`
}

func newExportResponse(e models.Export, downloadURL string) exportResponse {
	return exportResponse{
		ID:          e.ID,
		FormID:      e.FormID,
		Format:      string(e.Format),
		Status:      string(e.Status),
		SizeBytes:   e.SizeBytes,
		Error:       e.Error,
		CreatedAt:   e.CreatedAt,
		CompletedAt: e.CompletedAt,
		DownloadURL: downloadURL,
	}
}
