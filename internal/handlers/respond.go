package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kriwitj/nso-forms/internal/apperr"
	"github.com/kriwitj/nso-forms/internal/middleware"
	"github.com/kriwitj/nso-forms/internal/models"
)

// respondError writes the error body for err. Anything that is not an
// apperr is logged and hidden behind a 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		c.JSON(appErr.Status(), gin.H{"error": appErr.Code})
		return
	}

	h.log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Str("request_id", middleware.RequestIDFrom(c)).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
}

func badRequest(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": code})
}

// currentUser is only valid behind RequireUser.
func currentUser(c *gin.Context) models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}
