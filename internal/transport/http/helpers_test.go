package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eventsphere/event-service/internal/domain"
)

var (
	userPrincipal  = domain.Principal{UserID: "user-1", Role: domain.RoleUser, Name: "Alice", Email: "alice@example.com"}
	adminPrincipal = domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}
)

type apiErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// serve runs one request through h as p. A zero principal is anonymous.
func serve(h http.Handler, method, target, body string, p domain.Principal) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	if p.Authenticated() {
		req = req.WithContext(WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}
