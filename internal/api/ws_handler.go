package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/remfix/remfix/internal/models"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Session cookie is the auth; cross-origin dashboards are expected.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the dashboard event stream. Only admin and operator
// sessions may subscribe. Rejections happen before the upgrade with a raw
// status line: there is no HTTP response to attach a JSON body to once the
// client expects a websocket handshake.
func (a *API) ServeWS(c *gin.Context) {
	sessionID, err := c.Cookie(models.SessionCookieName)
	if err != nil || sessionID == "" {
		rejectUpgrade(c, http.StatusUnauthorized, "401 Unauthorized")
		return
	}
	session, err := a.auth.ValidateSession(c.Request.Context(), sessionID)
	if err != nil {
		rejectUpgrade(c, http.StatusUnauthorized, "401 Unauthorized")
		return
	}
	if session.Role != models.RoleAdmin && session.Role != models.RoleOperator {
		rejectUpgrade(c, http.StatusForbidden, "403 Forbidden")
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Printf("ws upgrade for %s: %v", session.Username, err)
		return
	}
	a.hub.Add(conn)
	a.logger.Printf("ws client connected: %s (%d online)", session.Username, a.hub.Len())

	// Reads are discarded; the stream is one-way. The loop exists to notice
	// the disconnect.
	go func() {
		defer func() {
			a.hub.Remove(conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func rejectUpgrade(c *gin.Context, code int, statusLine string) {
	hijacker, ok := c.Writer.(http.Hijacker)
	if !ok {
		c.Status(code)
		c.Abort()
		return
	}
	conn, _, err := hijacker.Hijack()
	if err != nil {
		c.Status(code)
		c.Abort()
		return
	}
	conn.Write([]byte("HTTP/1.1 " + statusLine + "\r\nConnection: close\r\n\r\n"))
	conn.Close()
	c.Abort()
}
