package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventsphere/event-service/internal/domain"
)

type principalKey struct{}

// Claims are the bearer token fields this service reads. Tokens are issued
// elsewhere and signed with a shared HS256 secret.
type Claims struct {
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	issuer string
}

func NewAuthenticator(secret, issuer string) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer}
}

var errAuthDisabled = errors.New("bearer authentication is not configured")

// Verify parses a raw token into a principal.
func (a *Authenticator) Verify(raw string) (domain.Principal, error) {
	if len(a.secret) == 0 {
		return domain.Principal{}, errAuthDisabled
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return domain.Principal{}, err
	}
	if claims.Subject == "" {
		return domain.Principal{}, errors.New("token has no subject")
	}

	role := domain.RoleUser
	if strings.EqualFold(claims.Role, string(domain.RoleAdmin)) {
		role = domain.RoleAdmin
	}
	return domain.Principal{
		UserID: claims.Subject,
		Role:   role,
		Name:   strings.TrimSpace(claims.Name),
		Email:  strings.TrimSpace(claims.Email),
	}, nil
}

// Middleware attaches the bearer principal to the request context. Requests
// without a token pass through anonymously; a bad token is rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "malformed authorization header")
			return
		}
		p, err := a.Verify(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) domain.Principal {
	p, _ := ctx.Value(principalKey{}).(domain.Principal)
	return p
}

// requireUser writes 401 and reports false for anonymous callers.
func requireUser(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p := PrincipalFrom(r.Context())
	if !p.Authenticated() {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return domain.Principal{}, false
	}
	return p, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := requireUser(w, r)
	if !ok {
		return domain.Principal{}, false
	}
	if err := domain.Authorize(domain.Admin, p, ""); err != nil {
		writeError(w, http.StatusForbidden, codeForbidden, "admin role required")
		return domain.Principal{}, false
	}
	return p, true
}
