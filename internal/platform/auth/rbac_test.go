package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWith(key contextKey, values []string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), key, values))
	return e.NewContext(req, httptest.NewRecorder())
}

func TestMatchScope(t *testing.T) {
	tests := []struct {
		granted  string
		required string
		want     bool
	}{
		{"anc.read", "anc.read", true},
		{"anc.write", "anc.read", false},
		{"anc.*", "anc.write", true},
		{"*.read", "anc.read", true},
		{"*.read", "anc.write", false},
		{"*.*", "anc.write", true},
		{"emergency.read", "anc.read", false},
		{"", "anc.read", false},
		{"invalid", "anc.read", false},
	}
	for _, tt := range tests {
		if got := matchScope(tt.granted, tt.required); got != tt.want {
			t.Errorf("matchScope(%q, %q) = %v, want %v", tt.granted, tt.required, got, tt.want)
		}
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		allow bool
	}{
		{"midwife allowed", []string{"midwife"}, true},
		{"nurse allowed", []string{"receptionist", "nurse"}, true},
		{"admin bypass", []string{"admin"}, true},
		{"receptionist denied", []string{"receptionist"}, false},
		{"no roles", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contextWith(UserRolesKey, tt.roles)
			err := RequireRole("physician", "nurse", "midwife")(okHandler)(c)
			if tt.allow && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tt.allow {
				expectStatus(t, err, http.StatusForbidden)
			}
		})
	}
}

func TestRequireScope(t *testing.T) {
	if err := RequireScope("anc", "write")(okHandler)(contextWith(UserScopesKey, []string{"anc.*"})); err != nil {
		t.Errorf("expected access, got %v", err)
	}
	err := RequireScope("anc", "write")(okHandler)(contextWith(UserScopesKey, []string{"anc.read"}))
	expectStatus(t, err, http.StatusForbidden)
}
