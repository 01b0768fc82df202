package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/apierrors"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/permissions"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and sets the session cookie.
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Error(c, apierrors.CodeInvalidRequest)
		return
	}

	user, session, err := a.auth.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		a.sendServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(models.SessionCookieName, session.SessionID,
		int(a.cfg.Auth.SessionMaxAge.Seconds()), "/", "", a.cfg.Auth.SecureCookies, true)
	sendSuccess(c, http.StatusOK, gin.H{
		"user":        user,
		"permissions": permissions.ForRole(user.Role),
	})
}

// Logout deletes the session and clears the cookie.
func (a *API) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(models.SessionCookieName); err == nil && sessionID != "" {
		if err := a.auth.Logout(c.Request.Context(), sessionID); err != nil {
			a.logger.Printf("logout: %v", err)
		}
	}
	c.SetCookie(models.SessionCookieName, "", -1, "/", "", a.cfg.Auth.SecureCookies, true)
	sendSuccess(c, http.StatusOK, nil)
}

// Me returns the session account and its permission record. The UI renders
// from this, the server enforces the same flags per route.
func (a *API) Me(c *gin.Context) {
	session := middleware.GetSession(c)
	user, err := a.auth.User(c.Request.Context(), session.UserID)
	if err != nil {
		a.sendServiceError(c, err)
		return
	}
	sendSuccess(c, http.StatusOK, gin.H{
		"user":        user,
		"permissions": permissions.ForRole(user.Role),
	})
}
