package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func authedRequest(t *testing.T, userID uuid.UUID, roles []string, chain ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(ContextUserIDKey, userID)
			c.Set(ContextRolesKey, roles)
		}
	}}
	handlers = append(handlers, chain...)
	r.GET("/protected", handlers...)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		userID uuid.UUID
		roles  []string
		status int
	}{
		{"matching role", uuid.New(), []string{"operator"}, http.StatusOK},
		{"extra roles", uuid.New(), []string{"admin", "operator"}, http.StatusOK},
		{"wrong role", uuid.New(), []string{"viewer"}, http.StatusForbidden},
		{"no roles set", uuid.Nil, nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := authedRequest(t, tc.userID, tc.roles, RequireRole("operator"), ok)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
		})
	}
}

func TestGetIdentity_RoundTrip(t *testing.T) {
	userID := uuid.New()
	w := authedRequest(t, userID, []string{"operator"}, func(c *gin.Context) {
		id := GetIdentity(c)
		if !id.IsAuthenticated() {
			t.Errorf("expected authenticated identity")
		}
		if id.UserID() != userID {
			t.Errorf("UserID = %s, want %s", id.UserID(), userID)
		}
		if !id.HasRole("operator") || id.HasRole("admin") {
			t.Errorf("unexpected roles: %v", id.Roles())
		}
		c.Status(http.StatusOK)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestMustGetIdentity_AbortsWhenUnauthenticated(t *testing.T) {
	called := false
	w := authedRequest(t, uuid.Nil, nil, func(c *gin.Context) {
		if id := MustGetIdentity(c); id != nil {
			t.Errorf("expected nil identity without auth context, got %v", id)
		}
		called = true
	})
	if !called {
		t.Fatalf("handler never ran")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
