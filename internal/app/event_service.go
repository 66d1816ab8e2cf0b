package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eventsphere/event-service/internal/clock"
	"github.com/eventsphere/event-service/internal/domain"
)

type EventRepository interface {
	CreateEvent(ctx context.Context, event domain.Event) error
	ListEvents(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) (domain.Event, error)
}

type EventService struct {
	repo   EventRepository
	ledger *Ledger
	clock  clock.Clock
}

func NewEventService(repo EventRepository, ledger *Ledger, clk clock.Clock) *EventService {
	return &EventService{
		repo:   repo,
		ledger: ledger,
		clock:  clk,
	}
}

type CreateEventInput struct {
	Title       string
	Description string
	Category    domain.Category
	Venue       string
	Date        *time.Time
	Capacity    int
	Price       decimal.Decimal
	Organizer   string
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (domain.Event, error) {
	event := domain.Event{
		ID:             newUUID(),
		Title:          strings.TrimSpace(in.Title),
		Description:    strings.TrimSpace(in.Description),
		Category:       domain.Category(strings.ToLower(strings.TrimSpace(string(in.Category)))),
		Venue:          strings.TrimSpace(in.Venue),
		Capacity:       in.Capacity,
		AvailableSeats: in.Capacity,
		Price:          in.Price,
		Organizer:      strings.TrimSpace(in.Organizer),
		CreatedAt:      s.clock.Now(),
	}
	if in.Date != nil {
		event.Date = in.Date.UTC()
	}
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *EventService) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	if id == "" {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return s.repo.GetEvent(ctx, id)
}

// DeleteEvent removes the event with its schedule and reservations.
func (s *EventService) DeleteEvent(ctx context.Context, id string) (domain.Event, error) {
	if id == "" {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return s.repo.DeleteEvent(ctx, id)
}

func (s *EventService) ChangeCapacity(ctx context.Context, id string, capacity int) (domain.Event, error) {
	if id == "" {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return s.ledger.ChangeCapacity(ctx, id, capacity)
}
