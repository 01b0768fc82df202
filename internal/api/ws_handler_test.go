package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
)

func wsDial(t *testing.T, server *httptest.Server, sessionID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{}
	if sessionID != "" {
		header.Set("Cookie", models.SessionCookieName+"="+sessionID)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestWSUpgradeForOperator(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	conn, _, err := wsDial(t, server, env.seedSession(t, "operator", nil))
	require.NoError(t, err)
	defer conn.Close()

	// the handler registers the client just after the handshake completes
	require.Eventually(t, func() bool { return env.api.hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	env.api.hub.Broadcast(realtime.Event{Type: realtime.EventTicketCreated, Payload: map[string]string{"number": "RF-20260830-0001"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev realtime.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, realtime.EventTicketCreated, ev.Type)
}

func TestWSRejectsMasterRole(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	_, resp, err := wsDial(t, server, env.seedSession(t, "master", nil))
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWSRejectsMissingSession(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	_, resp, err := wsDial(t, server, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSRejectsStaleSession(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	_, resp, err := wsDial(t, server, "no-such-session")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
