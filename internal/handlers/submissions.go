package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kriwitj/nso-forms/internal/middleware"
	"github.com/kriwitj/nso-forms/internal/service"
)

type submitRequest struct {
	Answers map[string]json.RawMessage `json:"answers"`
}

func (h HandlerSet) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_payload")
		return
	}

	input := service.SubmitInput{
		Answers:   make(map[string]service.AnswerInput, len(req.Answers)),
		IPAddress: c.ClientIP(),
	}
	for questionID, raw := range req.Answers {
		input.Answers[questionID] = decodeAnswer(raw)
	}
	if user, ok := middleware.CurrentUser(c); ok {
		input.Actor = &user
	}

	submission, err := h.submissions.Submit(c.Request.Context(), c.Param("formId"), input)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newSubmissionResponse(submission))
}

// decodeAnswer accepts a string, an array of selections, or any other JSON
// scalar, which is kept as its literal text.
func decodeAnswer(raw json.RawMessage) service.AnswerInput {
	if isNull(raw) {
		return service.AnswerInput{}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return service.AnswerInput{Value: text}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		selections := make([]string, 0, len(items))
		for _, item := range items {
			selections = append(selections, decodeAnswer(item).Value)
		}
		return service.AnswerInput{Selections: selections}
	}

	return service.AnswerInput{Value: string(raw)}
}

type summaryResponse struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
	Answered   int    `json:"answered"`
}

func (h HandlerSet) ListSubmissions(c *gin.Context) {
	list, err := h.submissions.ListSubmissions(c.Request.Context(), currentUser(c), c.Param("formId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]submissionResponse, 0, len(list.Items))
	for _, s := range list.Items {
		items = append(items, newSubmissionResponse(s))
	}
	summary := make([]summaryResponse, 0, len(list.Summary))
	for _, s := range list.Summary {
		summary = append(summary, summaryResponse{QuestionID: s.QuestionID, Text: s.Text, Answered: s.Answered})
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": list.Total, "summary": summary})
}
