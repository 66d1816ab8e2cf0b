package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eventsphere/event-service/internal/domain"
)

func TestWriteDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"interval", domain.ErrInvalidInterval, http.StatusBadRequest, codeInvalidInterval, "end time must be after start time"},
		{"wrapped validation", fmt.Errorf("create: %w", domain.ErrMissingAttendeeInfo), http.StatusBadRequest, codeMissingAttendeeInfo, ""},
		{"field rule", domain.Invalid(errors.New("title: the length must be no more than 120")), http.StatusBadRequest, codeValidation, "title: the length must be no more than 120"},
		{"price", domain.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice, ""},
		{"out of range", domain.ErrValueOutOfRange, http.StatusBadRequest, codeValueOutOfRange, "numeric value out of range"},
		{"event not found", domain.ErrEventNotFound, http.StatusNotFound, codeEventNotFound, "event not found"},
		{"rsvp not found", domain.ErrRSVPNotFound, http.StatusNotFound, codeRSVPNotFound, ""},
		{"access denied", domain.ErrAccessDenied, http.StatusForbidden, codeForbidden, ""},
		{"capacity", domain.ErrCapacityExceeded, http.StatusConflict, codeCapacityExceeded, ""},
		{"overlap", domain.ErrScheduleOverlap, http.StatusConflict, codeScheduleOverlap, ""},
		{"duplicate", domain.ErrDuplicateRSVP, http.StatusConflict, codeConflict, ""},
		{"transient", domain.Transient("lock event", context.DeadlineExceeded), http.StatusServiceUnavailable, codeStorageUnavailable, ""},
		{"dispatch", fmt.Errorf("%w: throttled", domain.ErrDispatch), http.StatusBadGateway, codeDispatchFailed, ""},
		{"unknown", errors.New("pq: relation does not exist"), http.StatusInternalServerError, codeInternalError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			writeDomainError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if tt.wantMsg != "" && resp.Error != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, resp.Error)
			}
			if rec.Code >= 500 && strings.Contains(resp.Error, "deadline") {
				t.Fatalf("expected internal detail to stay hidden, got %q", resp.Error)
			}
		})
	}
}
