// Package middleware holds the gin middlewares: session auth, permission
// gates, the master JWT check, rate limiting, and HTTP metrics.
package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/permissions"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/service"
)

const sessionContextKey = "session"

// SessionAuth validates the session cookie and stores the session in the
// request context. Requests without a valid session get 401.
func SessionAuth(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(models.SessionCookieName)
		if err != nil || sessionID == "" {
			apierrors.Error(c, apierrors.CodeUnauthorized)
			c.Abort()
			return
		}
		session, err := auth.ValidateSession(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, service.ErrSessionExpired) {
				apierrors.Error(c, apierrors.CodeUnauthorized)
			} else {
				apierrors.Error(c, apierrors.CodeInternalError)
			}
			c.Abort()
			return
		}
		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// GetSession returns the authenticated session, or nil outside SessionAuth.
func GetSession(c *gin.Context) *models.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	session, _ := v.(*models.Session)
	return session
}

// RequirePermission gates a route on one capability flag. Runs after
// SessionAuth; an unknown role carries the zero permission set, so the gate
// fails closed.
func RequirePermission(check func(permissions.Set) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSession(c)
		if session == nil {
			apierrors.Error(c, apierrors.CodeUnauthorized)
			c.Abort()
			return
		}
		if !check(permissions.ForRole(session.Role)) {
			apierrors.Error(c, apierrors.CodeForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
