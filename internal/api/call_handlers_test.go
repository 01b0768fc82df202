package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/telephony"
)

func postForm(t *testing.T, env *testEnv, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestZadarmaWebhookEchoProbe(t *testing.T) {
	env := newTestEnv(t)
	w := postForm(t, env, "/api/zadarma/webhook", url.Values{"zd_echo": {"ping-123"}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ping-123", w.Body.String())
}

func TestZadarmaWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{}
	form.Set("event", "NOTIFY_START")
	form.Set("pbx_call_id", "in_1")

	w := postForm(t, env, "/api/zadarma/webhook", form, map[string]string{"Signature": "bogus"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestZadarmaWebhookAcceptsSignedEvent(t *testing.T) {
	env := newTestEnv(t)
	form := url.Values{}
	form.Set("event", "NOTIFY_START")
	form.Set("pbx_call_id", "in_2")
	form.Set("caller_id", "+998935554433")
	form.Set("called_did", "+998711234567")

	sig := telephony.ZadarmaSignature(form, "zdsecret")
	w := postForm(t, env, "/api/zadarma/webhook", form, map[string]string{"Signature": sig})
	require.Equal(t, http.StatusOK, w.Code)

	operator := env.seedSession(t, "operator", nil)
	resp := env.request(t, http.MethodGet, "/api/calls", operator, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "in_2")
}

func TestOnlinePBXWebhookFailsClosedWithoutKey(t *testing.T) {
	env := newTestEnv(t)
	w := postForm(t, env, "/api/onlinepbx/webhook", url.Values{"event": {"call_start"}, "uuid": {"u-1"}}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCallListRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	master := env.seedSession(t, "master", nil)
	w := env.request(t, http.MethodGet, "/api/calls", master, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMasterLocationRoute(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedSession(t, "admin", nil)

	w := env.request(t, http.MethodPost, "/api/masters", admin, map[string]interface{}{"name": "Bobur Alimov"})
	require.Equal(t, http.StatusCreated, w.Code)

	token, err := middleware.IssueMasterToken("test-secret", 1, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/masters/1/location", strings.NewReader(`{"latitude":41.31,"longitude":69.28}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// token subject must match the path id
	req = httptest.NewRequest(http.MethodPost, "/api/masters/2/location", strings.NewReader(`{"latitude":41.31,"longitude":69.28}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// no token at all
	req = httptest.NewRequest(http.MethodPost, "/api/masters/1/location", strings.NewReader(`{"latitude":41.31,"longitude":69.28}`))
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.createTicket(t)
	operator := env.seedSession(t, "operator", nil)

	w := env.request(t, http.MethodGet, "/api/stats", operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tickets_total")
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.request(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
