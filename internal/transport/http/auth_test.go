package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventsphere/event-service/internal/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthenticator_Middleware(t *testing.T) {
	t.Parallel()

	valid := signToken(t, testSecret, Claims{
		Role:  "admin",
		Name:  "Ada",
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	expired := signToken(t, testSecret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	wrongKey := signToken(t, "other-secret", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	noSubject := signToken(t, testSecret, Claims{Role: "user"})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
		wantRole   domain.Role
	}{
		{"anonymous passes through", "", http.StatusOK, "", ""},
		{"valid token", "Bearer " + valid, http.StatusOK, "admin-1", domain.RoleAdmin},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "admin-1", domain.RoleAdmin},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, "", ""},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, "", ""},
		{"no subject", "Bearer " + noSubject, http.StatusUnauthorized, "", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "", ""},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "", ""},
	}

	auth := NewAuthenticator(testSecret, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var seen domain.Principal
			h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = PrincipalFrom(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/rsvps", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if seen.UserID != tt.wantUser || seen.Role != tt.wantRole {
				t.Fatalf("unexpected principal %+v", seen)
			}
		})
	}
}

func TestAuthenticator_Profile(t *testing.T) {
	t.Parallel()

	auth := NewAuthenticator(testSecret, "eventsphere")
	token := signToken(t, testSecret, Claims{
		Name:             " Alice ",
		Email:            "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "eventsphere"},
	})

	p, err := auth.Verify(token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.UserID != "user-1" || p.Role != domain.RoleUser || p.Name != "Alice" || p.Email != "alice@example.com" {
		t.Fatalf("unexpected principal %+v", p)
	}

	other := signToken(t, testSecret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", Issuer: "elsewhere"}})
	if _, err := auth.Verify(other); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}

	if _, err := NewAuthenticator("", "").Verify(token); err == nil {
		t.Fatalf("expected verification to fail without a secret")
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireAdmin(w, r); ok {
			w.WriteHeader(http.StatusNoContent)
		}
	})

	if rec := serve(h, http.MethodPost, "/events", "", domain.Principal{}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/events", "", userPrincipal); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodPost, "/events", "", adminPrincipal); rec.Code != http.StatusNoContent {
		t.Fatalf("expected admin to pass, got %d", rec.Code)
	}
}
