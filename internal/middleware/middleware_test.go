package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/clinic-scheduler/internal/domain/access"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, Principal(c))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	valid := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":                  "500",
		"role":                 "therapist",
		"therapist_profile_id": 7,
		"exp":                  time.Now().Add(time.Hour).Unix(),
	})
	expired := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub":  100,
		"role": "customer",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": 100, "role": "customer"})
	badRole := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": 100, "role": "root"})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"unknown role", "Bearer " + badRole, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	r := authRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestPrincipalFromClaims(t *testing.T) {
	p, ok := principalFromClaims(jwt.MapClaims{"sub": float64(500), "role": "therapist", "therapist_profile_id": "7"})
	if !ok {
		t.Fatal("expected valid claims")
	}
	if p.UserID != 500 || p.Role != access.RoleTherapist || p.TherapistProfileID == nil || *p.TherapistProfileID != 7 {
		t.Fatalf("unexpected principal %+v", p)
	}

	if _, ok := principalFromClaims(jwt.MapClaims{"sub": 1.5, "role": "customer"}); ok {
		t.Fatal("fractional sub must be rejected")
	}
	if _, ok := principalFromClaims(jwt.MapClaims{"role": "customer"}); ok {
		t.Fatal("missing sub must be rejected")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Now()

	if !rl.allow("10.0.0.1", now) || !rl.allow("10.0.0.1", now) {
		t.Fatal("burst should be allowed")
	}
	if rl.allow("10.0.0.1", now) {
		t.Fatal("third request in the same instant should be limited")
	}
	if !rl.allow("10.0.0.2", now) {
		t.Fatal("other clients have their own bucket")
	}
	if !rl.allow("10.0.0.1", now.Add(time.Second)) {
		t.Fatal("bucket should refill")
	}

	rl.allow("10.0.0.3", now.Add(time.Hour))
	rl.mu.Lock()
	_, kept := rl.visitors["10.0.0.1"]
	rl.mu.Unlock()
	if kept {
		t.Fatal("idle visitors should be swept")
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("pre-flight: %d %v", w.Code, w.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be echoed")
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected propagated id, got %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if len(w.Header().Get(RequestIDHeader)) != 36 {
		t.Fatalf("expected generated uuid, got %q", w.Header().Get(RequestIDHeader))
	}
}
