package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/kriwitj/nso-forms/internal/apperr"
	"github.com/kriwitj/nso-forms/internal/models"
)

const currentUserKey = "current_user"

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (models.User, error)
}

// Session resolves the session cookie when present. Invalid or expired
// sessions leave the request anonymous.
func Session(cookieName string, resolver SessionResolver, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := resolver.ResolveSession(c.Request.Context(), token)
		if err != nil {
			if _, ok := apperr.As(err); !ok {
				log.Error().Err(err).Str("request_id", RequestIDFrom(c)).Msg("resolve session failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
				return
			}
			c.Next()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireUser admits approved accounts only.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !user.IsApproved {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not_approved"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(currentUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
