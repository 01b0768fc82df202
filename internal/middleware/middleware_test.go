package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/remfix/remfix/internal/permissions"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 5; i++ {
		if !rl.Allow("ip:1.2.3.4", 5) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("ip:1.2.3.4", 5) {
		t.Fatal("request over limit should be denied")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter()
	for i := 0; i < 3; i++ {
		rl.Allow("ip:1.1.1.1", 3)
	}
	if rl.Allow("ip:1.1.1.1", 3) {
		t.Fatal("exhausted key should be denied")
	}
	if !rl.Allow("ip:2.2.2.2", 3) {
		t.Fatal("fresh key should be allowed")
	}
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/login", LoginRateLimit(NewRateLimiter(), 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	status := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "9.9.9.9:1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	if got := status(); got != http.StatusOK {
		t.Fatalf("first request: got %d", got)
	}
	if got := status(); got != http.StatusOK {
		t.Fatalf("second request: got %d", got)
	}
	if got := status(); got != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", got)
	}
}

func TestMasterJWTRoundTrip(t *testing.T) {
	token, err := IssueMasterToken("secret", 7, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.POST("/location", MasterJWT("secret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"master_id": GetMasterID(c)})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not a bearer token", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/location", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMasterJWTRejectsExpiredToken(t *testing.T) {
	token, err := IssueMasterToken("secret", 7, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.POST("/location", MasterJWT("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/location", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestMasterJWTRejectsWrongSecret(t *testing.T) {
	token, err := IssueMasterToken("other-secret", 7, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.POST("/location", MasterJWT("secret"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/location", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestRequirePermissionWithoutSession(t *testing.T) {
	r := gin.New()
	r.DELETE("/tickets/1", RequirePermission(func(p permissions.Set) bool { return p.CanDeleteTicket }), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/tickets/1", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}
