package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/anc/internal/platform/auth"
)

func newTestContext(method, path string, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withAuth(userID string, roles []string) func(*http.Request) {
	return func(req *http.Request) {
		ctx := req.Context()
		ctx = context.WithValue(ctx, auth.UserIDKey, userID)
		ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
		*req = *req.WithContext(ctx)
	}
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func decodeAuditLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	return line
}

func TestAudit_PatientHistoryRead(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	patientID := uuid.New().String()
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/"+patientID+"/prior-pregnancies",
		withAuth("midwife-7", []string{"midwife"}))
	c.Set("request_id", "req-1")

	if err := Audit(logger)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	line := decodeAuditLine(t, &buf)
	if line["patient_id"] != patientID {
		t.Errorf("expected patient_id %s, got %v", patientID, line["patient_id"])
	}
	if line["user_id"] != "midwife-7" || line["action"] != "read" || line["resource"] != "patients" {
		t.Errorf("unexpected audit line: %v", line)
	}
	if line["request_id"] != "req-1" {
		t.Errorf("expected request id, got %v", line["request_id"])
	}
}

func TestAudit_SessionSubmit(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c, _ := newTestContext(http.MethodPost, "/api/v1/anc-sessions/"+uuid.New().String()+"/submit")

	Audit(logger)(okHandler)(c)

	line := decodeAuditLine(t, &buf)
	if line["action"] != "create" || line["resource"] != "anc-sessions" {
		t.Errorf("unexpected audit line: %v", line)
	}
}

func TestAudit_RecordsErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c, _ := newTestContext(http.MethodGet, "/api/v1/danger-sign-assessments?patient_id=abc")

	err := Audit(logger)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})(c)
	if err == nil {
		t.Fatal("expected handler error to pass through")
	}

	line := decodeAuditLine(t, &buf)
	if line["status"] != float64(http.StatusNotFound) {
		t.Errorf("expected status 404, got %v", line["status"])
	}
	if line["patient_id"] != "abc" {
		t.Errorf("expected patient_id from query, got %v", line["patient_id"])
	}
}

func TestAudit_SkipsHealth(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c, _ := newTestContext(http.MethodGet, "/health")

	Audit(logger)(okHandler)(c)

	if buf.Len() != 0 {
		t.Errorf("expected no audit line, got %q", buf.String())
	}
}

func TestActionForMethod(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:    "read",
		http.MethodHead:   "read",
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}
	for method, want := range tests {
		if got := actionForMethod(method); got != want {
			t.Errorf("actionForMethod(%s) = %q, want %q", method, got, want)
		}
	}
}

func TestResourceFromPath(t *testing.T) {
	tests := map[string]string{
		"/api/v1/obstetrics/viability":      "obstetrics",
		"/api/v1/anc-sessions":              "anc-sessions",
		"/api/v1/danger-sign-assessments/1": "danger-sign-assessments",
		"/api/v1/":                          "unknown",
	}
	for path, want := range tests {
		if got := resourceFromPath(path); got != want {
			t.Errorf("resourceFromPath(%s) = %q, want %q", path, got, want)
		}
	}
}
