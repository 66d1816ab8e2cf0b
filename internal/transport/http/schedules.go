package http

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/eventsphere/event-service/internal/app"
	"github.com/eventsphere/event-service/internal/domain"
	"github.com/eventsphere/event-service/internal/interval"
)

// ScheduleService is the minimal interface needed for schedule endpoints.
type ScheduleService interface {
	Create(ctx context.Context, in app.CreateScheduleInput) (domain.ScheduleItem, error)
	Update(ctx context.Context, id string, patch domain.SchedulePatch) (domain.ScheduleItem, error)
	Delete(ctx context.Context, id string) (domain.ScheduleItem, error)
	Get(ctx context.Context, id string) (domain.ScheduleItem, error)
	ListByEvent(ctx context.Context, eventID string) iter.Seq2[domain.ScheduleItem, error]
}

// HandleSchedules serves GET /schedules?eventId= and POST /schedules.
func HandleSchedules(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			resp := []scheduleResponse{}
			for item, err := range svc.ListByEvent(r.Context(), r.URL.Query().Get("eventId")) {
				if err != nil {
					writeDomainError(w, err)
					return
				}
				resp = append(resp, toScheduleResponse(item))
			}
			writeJSON(w, http.StatusOK, resp)
		case http.MethodPost:
			if _, ok := requireAdmin(w, r); !ok {
				return
			}
			var req createScheduleRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			in := app.CreateScheduleInput{
				EventID:     req.EventID,
				Title:       req.Title,
				Description: req.Description,
				Speaker:     req.Speaker,
				Location:    req.Location,
			}
			var err error
			if in.StartTime, err = optionalTime(req.StartTime); err != nil {
				writeDomainError(w, err)
				return
			}
			if in.EndTime, err = optionalTime(req.EndTime); err != nil {
				writeDomainError(w, err)
				return
			}
			item, err := svc.Create(r.Context(), in)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toScheduleResponse(item))
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	}
}

// HandleSchedule serves GET, PUT and DELETE on /schedules/:id.
func HandleSchedule(svc ScheduleService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, sub, ok := parseResourcePath(r.URL.Path, "schedules")
		if !ok || sub != "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			item, err := svc.Get(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toScheduleResponse(item))
		case http.MethodPut:
			if _, ok := requireAdmin(w, r); !ok {
				return
			}
			var req updateScheduleRequest
			if !decodeJSON(w, r, &req) {
				return
			}
			patch, err := req.patch()
			if err != nil {
				writeDomainError(w, err)
				return
			}
			item, err := svc.Update(r.Context(), id, patch)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toScheduleResponse(item))
		case http.MethodDelete:
			if _, ok := requireAdmin(w, r); !ok {
				return
			}
			item, err := svc.Delete(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, deletedResponse{
				Message: "Schedule deleted successfully",
				Deleted: toScheduleResponse(item),
			})
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

type createScheduleRequest struct {
	EventID     string `json:"eventId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Speaker     string `json:"speaker"`
	Location    string `json:"location"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

type updateScheduleRequest struct {
	EventID     *string `json:"eventId"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Speaker     *string `json:"speaker"`
	Location    *string `json:"location"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
}

func (r updateScheduleRequest) patch() (domain.SchedulePatch, error) {
	patch := domain.SchedulePatch{
		EventID:     r.EventID,
		Title:       r.Title,
		Description: r.Description,
		Speaker:     r.Speaker,
		Location:    r.Location,
	}
	if r.StartTime != nil {
		t, err := interval.Parse(*r.StartTime)
		if err != nil {
			return domain.SchedulePatch{}, err
		}
		patch.StartTime = &t
	}
	if r.EndTime != nil {
		t, err := interval.Parse(*r.EndTime)
		if err != nil {
			return domain.SchedulePatch{}, err
		}
		patch.EndTime = &t
	}
	return patch, nil
}

// optionalTime parses raw, leaving an absent value zero for the service to
// reject in order.
func optionalTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return interval.Parse(raw)
}

type scheduleResponse struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Speaker     string    `json:"speaker"`
	Location    string    `json:"location"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toScheduleResponse(s domain.ScheduleItem) scheduleResponse {
	return scheduleResponse{
		ID:          s.ID,
		EventID:     s.EventID,
		Title:       s.Title,
		Description: s.Description,
		Speaker:     s.Speaker,
		Location:    s.Location,
		StartTime:   interval.Format(s.StartTime),
		EndTime:     interval.Format(s.EndTime),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
