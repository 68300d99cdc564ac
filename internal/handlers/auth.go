package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kriwitj/nso-forms/internal/middleware"
	"github.com/kriwitj/nso-forms/internal/service"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "missing_fields")
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":              result.User.ID,
		"pendingApproval": result.PendingApproval,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, service.ErrInvalidCredentials)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, int(h.auth.SessionTTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"role":       result.User.Role,
		"isApproved": result.User.IsApproved,
	})
}

func (h HandlerSet) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cfg.Security.CookieName); err == nil {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			h.respondError(c, err)
			return
		}
	}

	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Security.CookieName, value, maxAge, "/", "", h.cfg.Security.CookieSecure, true)
}

// Me reports the session user, or null for anonymous callers.
func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

func (h HandlerSet) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(currentUser(c))})
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	body, ok := bindPatch(c)
	if !ok {
		badRequest(c, "invalid_payload")
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUser(c), service.ProfileInput{
		Name:            body.String("name"),
		ThemePreference: body.String("themePreference"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
