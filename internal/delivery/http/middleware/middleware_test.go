package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/domain"
	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

func echoIdentity(t *testing.T, seen *domain.Identity, found *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen, *found = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestIdentity(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		userID    string
		role      string
		wantCode  int
		wantFound bool
		wantRole  domain.Role
	}{
		{"anonymous", "", "", http.StatusOK, false, ""},
		{"user default role", userID.String(), "", http.StatusOK, true, domain.RoleUser},
		{"admin", userID.String(), "Admin", http.StatusOK, true, domain.RoleAdmin},
		{"malformed id", "42", "", http.StatusUnauthorized, false, ""},
		{"unknown role", userID.String(), "root", http.StatusUnauthorized, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen domain.Identity
			var found bool

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			w := httptest.NewRecorder()

			Identity(echoIdentity(t, &seen, &found)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, userID, seen.UserID)
				assert.Equal(t, tt.wantRole, seen.Role)
			}
		})
	}
}

func TestRequireUserAndAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name    string
		role    string
		guard   func(http.Handler) http.Handler
		anon    bool
		wantErr int
	}{
		{"user route anonymous", "", RequireUser, true, http.StatusUnauthorized},
		{"user route user", "user", RequireUser, false, http.StatusNoContent},
		{"admin route anonymous", "", RequireAdmin, true, http.StatusUnauthorized},
		{"admin route user", "user", RequireAdmin, false, http.StatusForbidden},
		{"admin route admin", "admin", RequireAdmin, false, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if !tt.anon {
				req.Header.Set(HeaderUserID, uuid.NewString())
				req.Header.Set(HeaderUserRole, tt.role)
			}
			w := httptest.NewRecorder()

			Identity(tt.guard(ok)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantErr, w.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)

	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	w := httptest.NewRecorder()

	Recovery(log)(panicky).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), "boom")
}

func TestLogger_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf)

	teapot := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)

	Logger(log)(teapot).ServeHTTP(httptest.NewRecorder(), req)

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/cart"`)
}
