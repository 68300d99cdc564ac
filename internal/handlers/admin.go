package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kriwitj/nso-forms/internal/service"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, newUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	IsApproved *bool  `json:"isApproved"`
}

func (h HandlerSet) AdminCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid_payload")
		return
	}

	user, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		IsApproved: req.IsApproved,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h HandlerSet) AdminUpdateUser(c *gin.Context) {
	body, ok := bindPatch(c)
	if !ok {
		badRequest(c, "invalid_payload")
		return
	}

	user, err := h.users.Update(c.Request.Context(), currentUser(c), c.Param("userId"), service.UpdateUserInput{
		Name:            body.String("name"),
		Role:            body.String("role"),
		ThemePreference: body.String("themePreference"),
		IsApproved:      body.Bool("isApproved"),
		Password:        body.String("password"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h HandlerSet) AdminApproveUser(c *gin.Context) {
	user, err := h.users.Approve(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), currentUser(c), c.Param("userId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
