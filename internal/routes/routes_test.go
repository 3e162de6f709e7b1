package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/lock"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/payment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/testfixtures"
)

const testSecret = "test-secret"

func newEngine(c *testfixtures.Clinic, health func() error) (*gin.Engine, *metrics.Collector) {
	gin.SetMode(gin.TestMode)

	m := metrics.NewCollector("clinic_test")
	cfg := &config.Config{
		JWTSecret:      testSecret,
		TaxRate:        0.18,
		LockTTL:        5 * time.Second,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}

	r := gin.New()
	RegisterRoutes(r, Infra{
		AppointmentRepo: c.Store.AppointmentRepo(),
		WaitlistRepo:    c.Store.WaitlistRepo(),
		Locker:          lock.NewLocalLocker(time.Second),
		Clock:           c.Clock,
		Gateway:         payment.Offline{},
		Metrics:         m,
		Health:          health,
	}, cfg)
	return r, m
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func request(r *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	c := testfixtures.NewClinic()

	r, _ := newEngine(c, nil)
	if w := request(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	r, _ = newEngine(c, func() error { return errors.New("db down") })
	if w := request(r, http.MethodGet, "/health", "", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	c := testfixtures.NewClinic()
	r, _ := newEngine(c, nil)

	w := request(r, http.MethodGet, "/api/appointments", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}

	w = request(r, http.MethodGet, "/api/appointments", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestBookThroughFullStack(t *testing.T) {
	c := testfixtures.NewClinic()
	r, _ := newEngine(c, nil)

	customer := token(t, jwt.MapClaims{"sub": c.Customer.UserID, "role": "customer"})
	w := request(r, http.MethodPost, "/api/appointments/book", customer, map[string]any{
		"service_id":   c.Service.ID,
		"branch_id":    c.Branch.ID,
		"therapist_id": c.Therapist.ID,
		"start_time":   testfixtures.Today(14, 0).Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body)
	}

	staff := token(t, jwt.MapClaims{
		"sub":                  c.Staff.UserID,
		"role":                 "therapist",
		"therapist_profile_id": c.Therapist.ID,
	})
	w = request(r, http.MethodGet, "/api/appointments", staff, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total":1`) {
		t.Fatalf("expected therapist to see one appointment, got %d: %s", w.Code, w.Body)
	}

	path := fmt.Sprintf("/api/therapists/%d/availability?start_date=2030-06-03", c.Therapist.ID)
	if w = request(r, http.MethodGet, path, customer, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuditLogsNotMountedWithoutReader(t *testing.T) {
	c := testfixtures.NewClinic()
	r, _ := newEngine(c, nil)

	admin := token(t, jwt.MapClaims{"sub": 1, "role": "admin"})
	if w := request(r, http.MethodGet, "/api/audit-logs", admin, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestMetricsUseRouteTemplate(t *testing.T) {
	c := testfixtures.NewClinic()
	r, _ := newEngine(c, nil)

	customer := token(t, jwt.MapClaims{"sub": c.Customer.UserID, "role": "customer"})
	request(r, http.MethodGet, "/api/appointments/42", customer, nil)

	w := request(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `path="/api/appointments/:id"`) {
		t.Fatalf("expected templated path label in metrics output")
	}
}
