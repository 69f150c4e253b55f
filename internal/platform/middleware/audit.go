package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/anc/internal/platform/auth"
)

// AuditEntry records who touched which patient data and how.
type AuditEntry struct {
	UserID     string
	UserRoles  []string
	Resource   string
	PatientID  string
	Action     string
	IPAddress  string
	Path       string
	Method     string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// Audit logs an access entry for every /api/v1 request after the handler
// has run.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/v1/") {
				return next(c)
			}

			err := next(c)

			entry := buildAuditEntry(c)
			if he, ok := err.(*echo.HTTPError); ok {
				entry.StatusCode = he.Code
			}
			logger.Info().
				Str("type", "access_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("patient_data_access")

			return err
		}
	}
}

func buildAuditEntry(c echo.Context) AuditEntry {
	req := c.Request()
	ctx := req.Context()
	entry := AuditEntry{
		UserID:     auth.UserIDFromContext(ctx),
		UserRoles:  auth.RolesFromContext(ctx),
		Resource:   resourceFromPath(req.URL.Path),
		PatientID:  patientFromRequest(c),
		Action:     actionForMethod(req.Method),
		IPAddress:  c.RealIP(),
		Path:       req.URL.Path,
		Method:     req.Method,
		StatusCode: c.Response().Status,
		Timestamp:  time.Now().UTC(),
	}
	entry.RequestID, _ = c.Get("request_id").(string)
	return entry
}

func actionForMethod(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceFromPath returns the first segment after /api/v1/.
func resourceFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	if seg := strings.SplitN(rest, "/", 2)[0]; seg != "" {
		return seg
	}
	return "unknown"
}

// patientFromRequest finds a patient id in /api/v1/patients/<id> or in a
// patient_id query parameter.
func patientFromRequest(c echo.Context) string {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/v1/patients/") {
		seg := strings.SplitN(strings.TrimPrefix(path, "/api/v1/patients/"), "/", 2)[0]
		if _, err := uuid.Parse(seg); err == nil {
			return seg
		}
	}
	return c.QueryParam("patient_id")
}
