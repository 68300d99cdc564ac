package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kriwitj/nso-forms/internal/service"
)

func (h HandlerSet) ListForms(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	page, _ := strconv.Atoi(c.Query("page"))

	list, err := h.forms.ListForms(c.Request.Context(), currentUser(c), service.ListFormsQuery{
		Limit:          limit,
		Page:           page,
		Search:         c.Query("q"),
		Status:         c.Query("status"),
		Sort:           c.Query("sort"),
		Order:          c.Query("order"),
		IncludeDeleted: c.Query("includeDeleted") == "true",
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]formResponse, 0, len(list.Items))
	for _, f := range list.Items {
		items = append(items, newFormResponse(f))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total":       list.Total,
		"activeTotal": list.ActiveTotal,
		"limit":       list.Limit,
		"page":        list.Page,
	})
}

type createFormRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h HandlerSet) CreateForm(c *gin.Context) {
	var req createFormRequest
	// An empty body creates an untitled form.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid_payload")
			return
		}
	}

	form, err := h.forms.CreateForm(c.Request.Context(), currentUser(c), service.CreateFormInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newFormResponse(form))
}

func (h HandlerSet) GetForm(c *gin.Context) {
	detail, err := h.forms.GetForm(c.Request.Context(), currentUser(c), c.Param("formId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFormDetailResponse(detail))
}

func (h HandlerSet) PublicForm(c *gin.Context) {
	detail, err := h.forms.PublicForm(c.Request.Context(), c.Param("formId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFormDetailResponse(detail))
}

func (h HandlerSet) UpdateForm(c *gin.Context) {
	body, ok := bindPatch(c)
	if !ok {
		badRequest(c, "invalid_payload")
		return
	}

	form, err := h.forms.UpdateForm(c.Request.Context(), currentUser(c), c.Param("formId"), service.FormPatch{
		Title:       body.String("title"),
		Description: body.String("description"),
		IsActive:    body.Bool("isActive"),
		IsPublished: body.Bool("isPublished"),
		StartAt:     body.Time("startAt"),
		EndAt:       body.Time("endAt"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFormResponse(form))
}

func (h HandlerSet) DeleteForm(c *gin.Context) {
	if err := h.forms.DeleteForm(c.Request.Context(), currentUser(c), c.Param("formId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) AddQuestion(c *gin.Context) {
	body := patchBody{}
	if c.Request.ContentLength != 0 {
		var ok bool
		if body, ok = bindPatch(c); !ok {
			badRequest(c, "invalid_payload")
			return
		}
	}
	options, _ := body.Strings("options")

	question, err := h.forms.AddQuestion(c.Request.Context(), currentUser(c), c.Param("formId"), service.QuestionInput{
		Text:     body.String("text"),
		Type:     body.String("type"),
		Required: body.Bool("required"),
		Options:  options,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newQuestionResponse(question))
}

func (h HandlerSet) UpdateQuestion(c *gin.Context) {
	body, ok := bindPatch(c)
	if !ok {
		badRequest(c, "invalid_payload")
		return
	}
	options, optionsSet := body.Strings("options")

	question, err := h.forms.UpdateQuestion(c.Request.Context(), currentUser(c), c.Param("formId"), c.Param("questionId"), service.QuestionPatch{
		Text:       body.String("text"),
		Type:       body.String("type"),
		Required:   body.Bool("required"),
		Order:      body.Int("order"),
		Options:    options,
		OptionsSet: optionsSet,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuestionResponse(question))
}

func (h HandlerSet) DeleteQuestion(c *gin.Context) {
	if err := h.forms.DeleteQuestion(c.Request.Context(), currentUser(c), c.Param("formId"), c.Param("questionId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
