package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

var corsMethods = strings.Join([]string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
}, ", ")

// Set on 429 and 503 responses.
const corsExposed = "Retry-After"

// CORSPolicy configures which browser origins may call the API. An origin of
// "*" allows any caller.
type CORSPolicy struct {
	Origins []string
	Headers []string
	MaxAge  time.Duration
}

// CORS answers preflights for the allowed origins and tags their responses.
// Requests without an Origin header pass through untouched.
func CORS(policy CORSPolicy, next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(policy.Origins))
	for _, origin := range trimmed(policy.Origins) {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	headers := strings.Join(trimmed(policy.Headers), ", ")
	if headers == "" {
		headers = "Authorization, Content-Type"
	}
	maxAge := strconv.Itoa(int(policy.MaxAge / time.Second))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

		_, ok := allowed[origin]
		if !ok && !allowAll {
			if preflight {
				writeError(w, http.StatusForbidden, codeForbidden, "origin not allowed")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if preflight {
			w.Header().Set("Access-Control-Allow-Methods", corsMethods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			if policy.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Access-Control-Expose-Headers", corsExposed)
		next.ServeHTTP(w, r)
	})
}

func trimmed(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
