package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventsphere/event-service/internal/app"
	"github.com/eventsphere/event-service/internal/domain"
	"github.com/eventsphere/event-service/internal/interval"
)

// EventService is the minimal interface needed for event endpoints.
type EventService interface {
	CreateEvent(ctx context.Context, in app.CreateEventInput) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) (domain.Event, error)
	ChangeCapacity(ctx context.Context, id string, capacity int) (domain.Event, error)
}

// HandleEvents serves GET and POST on /events.
func HandleEvents(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			events, err := svc.ListEvents(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := make([]eventResponse, 0, len(events))
			for _, event := range events {
				resp = append(resp, toEventResponse(event))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			if _, ok := requireAdmin(w, r); !ok {
				return
			}
			var req createEventRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			in, err := req.input()
			if err != nil {
				writeDomainError(w, err)
				return
			}
			event, err := svc.CreateEvent(r.Context(), in)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toEventResponse(event))
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	}
}

// HandleEvent serves /events/:id and /events/:id/capacity.
func HandleEvent(svc EventService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sub, ok := parseResourcePath(r.URL.Path, "events")
		if !ok || (sub != "" && sub != "capacity") {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if sub == "capacity" {
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			if _, ok := requireAdmin(w, r); !ok {
				return
			}
			var req changeCapacityRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			if req.Capacity == nil {
				writeDomainError(w, domain.ErrInvalidCapacity)
				return
			}
			event, err := svc.ChangeCapacity(r.Context(), id, *req.Capacity)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toEventResponse(event))
			return
		}

		switch r.Method {
		case http.MethodGet:
			event, err := svc.GetEvent(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toEventResponse(event))
		case http.MethodDelete:
			if _, ok := requireAdmin(w, r); !ok {
				return
			}
			event, err := svc.DeleteEvent(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, deletedResponse{
				Message: "Event deleted successfully",
				Deleted: toEventResponse(event),
			})
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodDelete)
		}
	}
}

type createEventRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Venue       string          `json:"venue"`
	Date        string          `json:"date"`
	Capacity    *int            `json:"capacity"`
	Price       decimal.Decimal `json:"price"`
	Organizer   string          `json:"organizer"`
}

func (r createEventRequest) input() (app.CreateEventInput, error) {
	if r.Capacity == nil {
		return app.CreateEventInput{}, domain.ErrInvalidCapacity
	}
	in := app.CreateEventInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Venue:       r.Venue,
		Capacity:    *r.Capacity,
		Price:       r.Price,
		Organizer:   r.Organizer,
	}
	if r.Date != "" {
		date, err := interval.Parse(r.Date)
		if err != nil {
			return app.CreateEventInput{}, err
		}
		in.Date = &date
	}
	return in, nil
}

type changeCapacityRequest struct {
	Capacity *int `json:"capacity"`
}

type eventResponse struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Venue          string          `json:"venue"`
	Date           string          `json:"date"`
	Capacity       int             `json:"capacity"`
	AvailableSeats int             `json:"availableSeats"`
	ReservedSeats  int             `json:"reservedSeats"`
	Price          decimal.Decimal `json:"price"`
	Organizer      string          `json:"organizer"`
	CreatedAt      time.Time       `json:"createdAt"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:             e.ID,
		Title:          e.Title,
		Description:    e.Description,
		Category:       string(e.Category),
		Venue:          e.Venue,
		Date:           interval.Format(e.Date),
		Capacity:       e.Capacity,
		AvailableSeats: e.AvailableSeats,
		ReservedSeats:  e.ConsumedSeats(),
		Price:          e.Price,
		Organizer:      e.Organizer,
		CreatedAt:      e.CreatedAt,
	}
}

type deletedResponse struct {
	Message string `json:"message"`
	Deleted any    `json:"deleted"`
}
