package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eventsphere/event-service/internal/app"
	"github.com/eventsphere/event-service/internal/domain"
)

// ReservationService is the minimal interface needed for RSVP endpoints.
type ReservationService interface {
	Submit(ctx context.Context, in app.SubmitInput) (app.SubmitResult, error)
	Get(ctx context.Context, id string, p domain.Principal) (domain.RSVP, error)
	UpdateByID(ctx context.Context, id string, p domain.Principal, patch domain.RSVPPatch) (domain.RSVP, error)
	DeleteByID(ctx context.Context, id string, p domain.Principal) (domain.RSVP, error)
	List(ctx context.Context, filter domain.RSVPFilter, p domain.Principal) ([]domain.RSVP, error)
}

// HandleRSVPs serves GET /rsvps?eventId=&status= and POST /rsvps.
func HandleRSVPs(svc ReservationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := requireUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			filter := domain.RSVPFilter{
				EventID: strings.TrimSpace(q.Get("eventId")),
				Status:  domain.RSVPStatus(strings.ToLower(strings.TrimSpace(q.Get("status")))),
			}
			rsvps, err := svc.List(r.Context(), filter, p)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]rsvpResponse, 0, len(rsvps))
			for _, rsvp := range rsvps {
				resp = append(resp, toRSVPResponse(rsvp))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			var req submitRSVPRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			status, err := domain.ParseRSVPStatus(req.Status)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			guests, err := lenientGuests(req.Guests)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			res, err := svc.Submit(r.Context(), app.SubmitInput{
				EventID:   req.EventID,
				Principal: p,
				Name:      req.Name,
				Email:     req.Email,
				Phone:     req.Phone,
				Status:    status,
				Guests:    guests,
				Notes:     req.Notes,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, submitRSVPResponse{
				Message: "RSVP saved successfully",
				Created: res.Created,
				RSVP:    toRSVPResponse(res.RSVP),
			})
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	}
}

// HandleRSVP serves GET, PUT and DELETE on /rsvps/:id.
func HandleRSVP(svc ReservationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sub, ok := parseResourcePath(r.URL.Path, "rsvps")
		if !ok || sub != "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		p, ok := requireUser(w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			rsvp, err := svc.Get(r.Context(), id, p)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toRSVPResponse(rsvp))
		case http.MethodPut:
			var req updateRSVPRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			patch, err := req.patch()
			if err != nil {
				writeDomainError(w, err)
				return
			}
			rsvp, err := svc.UpdateByID(r.Context(), id, p, patch)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toRSVPResponse(rsvp))
		case http.MethodDelete:
			rsvp, err := svc.DeleteByID(r.Context(), id, p)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, deletedResponse{
				Message: "RSVP removed",
				Deleted: toRSVPResponse(rsvp),
			})
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

type submitRSVPRequest struct {
	EventID string          `json:"eventId"`
	Status  string          `json:"status"`
	Guests  json.RawMessage `json:"guests"`
	Notes   string          `json:"notes"`
	Phone   string          `json:"phone"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
}

type updateRSVPRequest struct {
	Status *string         `json:"status"`
	Guests json.RawMessage `json:"guests"`
	Notes  *string         `json:"notes"`
	Phone  *string         `json:"phone"`
}

func (r updateRSVPRequest) patch() (domain.RSVPPatch, error) {
	patch := domain.RSVPPatch{Notes: r.Notes, Phone: r.Phone}
	if r.Status != nil {
		if strings.TrimSpace(*r.Status) == "" {
			return domain.RSVPPatch{}, domain.ErrInvalidStatus
		}
		status, err := domain.ParseRSVPStatus(*r.Status)
		if err != nil {
			return domain.RSVPPatch{}, err
		}
		patch.Status = &status
	}
	if len(r.Guests) > 0 {
		guests, err := strictGuests(r.Guests)
		if err != nil {
			return domain.RSVPPatch{}, err
		}
		patch.Guests = &guests
	}
	return patch, nil
}

var (
	errNotWhole   = errors.New("not a whole number")
	errOutOfRange = errors.New("number out of range")
)

// lenientGuests reads the guest count of a submission. Anything that is not a
// whole number, in JSON or as a string, counts as zero guests. Negative whole
// numbers pass through and are rejected by the service. Numbers no seat
// column can hold are rejected here.
func lenientGuests(raw json.RawMessage) (int, error) {
	n, err := wholeNumber(raw)
	switch {
	case errors.Is(err, errOutOfRange):
		return 0, domain.ErrInvalidGuestCount
	case err != nil:
		return 0, nil
	}
	return n, nil
}

// strictGuests reads the guest count of an update, which must be a
// non-negative whole number.
func strictGuests(raw json.RawMessage) (int, error) {
	n, err := wholeNumber(raw)
	if err != nil || n < 0 {
		return 0, domain.ErrInvalidGuestCount
	}
	return n, nil
}

func wholeNumber(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errNotWhole
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, errNotWhole
		}
	} else {
		text = string(raw)
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		return 0, errOutOfRange
	case err != nil, math.IsInf(f, 0), math.IsNaN(f), f != math.Trunc(f):
		return 0, errNotWhole
	case math.Abs(f) > domain.MaxGuests:
		return 0, errOutOfRange
	}
	return int(f), nil
}
