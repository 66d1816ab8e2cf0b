package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eventsphere/event-service/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeValidation          = "validation_failed"
	codeInvalidInterval     = "invalid_interval"
	codeMalformedTimestamp  = "malformed_timestamp"
	codeEventIDRequired     = "event_id_required"
	codeMissingAttendeeInfo = "missing_attendee_info"
	codeInvalidGuestCount   = "invalid_guest_count"
	codeInvalidStatus       = "invalid_status"
	codeInvalidCapacity     = "invalid_capacity"
	codeInvalidPrice        = "invalid_price"
	codeValueOutOfRange     = "value_out_of_range"
	codeMissingMessage      = "message_required"
	codeMissingRecipient    = "recipient_required"
	codeEventNotFound       = "event_not_found"
	codeScheduleNotFound    = "schedule_not_found"
	codeRSVPNotFound        = "rsvp_not_found"
	codeUnauthorized        = "unauthorized"
	codeForbidden           = "forbidden"
	codeCapacityExceeded    = "capacity_exceeded"
	codeScheduleOverlap     = "schedule_overlap"
	codeConflict            = "conflict"
	codeRateLimited         = "rate_limited"
	codeStorageUnavailable  = "storage_unavailable"
	codeDispatchFailed      = "dispatch_failed"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrInvalidInterval, codeInvalidInterval},
	{domain.ErrMalformedTimestamp, codeMalformedTimestamp},
	{domain.ErrEventIDRequired, codeEventIDRequired},
	{domain.ErrMissingAttendeeInfo, codeMissingAttendeeInfo},
	{domain.ErrInvalidGuestCount, codeInvalidGuestCount},
	{domain.ErrInvalidStatus, codeInvalidStatus},
	{domain.ErrInvalidCapacity, codeInvalidCapacity},
	{domain.ErrInvalidPrice, codeInvalidPrice},
	{domain.ErrValueOutOfRange, codeValueOutOfRange},
	{domain.ErrMessageRequired, codeMissingMessage},
	{domain.ErrRecipientRequired, codeMissingRecipient},
	{domain.ErrEventNotFound, codeEventNotFound},
	{domain.ErrScheduleNotFound, codeScheduleNotFound},
	{domain.ErrRSVPNotFound, codeRSVPNotFound},
	{domain.ErrScheduleOverlap, codeScheduleOverlap},
}

// writeDomainError maps a service error onto a status and code. Server-side
// failures never expose their message.
func writeDomainError(w http.ResponseWriter, err error) {
	code := ""
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			code = c.code
			break
		}
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, codeOr(code, codeValidation), domain.Message(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeOr(code, codeNotFound), domain.Message(err))
	case errors.Is(err, domain.ErrAccessDenied):
		writeError(w, http.StatusForbidden, codeForbidden, domain.Message(err))
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, codeCapacityExceeded, "not enough seats available")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, codeOr(code, codeConflict), domain.Message(err))
	case errors.Is(err, domain.ErrTransientStorage):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage temporarily unavailable, retry the request")
	case errors.Is(err, domain.ErrDispatch):
		writeError(w, http.StatusBadGateway, codeDispatchFailed, "notification dispatch failed")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func codeOr(code, fallback string) string {
	if code == "" {
		return fallback
	}
	return code
}
