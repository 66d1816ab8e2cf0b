package app

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/eventsphere/event-service/internal/clock"
	"github.com/eventsphere/event-service/internal/domain"
	"github.com/eventsphere/event-service/internal/interval"
)

type ScheduleRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockEvent(ctx context.Context, eventID string) (domain.Event, error)
	CreateSchedule(ctx context.Context, item domain.ScheduleItem) (domain.ScheduleItem, error)
	GetSchedule(ctx context.Context, id string) (domain.ScheduleItem, error)
	GetScheduleForUpdate(ctx context.Context, id string) (domain.ScheduleItem, error)
	UpdateSchedule(ctx context.Context, item domain.ScheduleItem) error
	DeleteSchedule(ctx context.Context, id string) (domain.ScheduleItem, error)
	HasOverlap(ctx context.Context, eventID, excludeID string, start, end time.Time) (bool, error)
	ListSchedules(ctx context.Context, eventID string) iter.Seq2[domain.ScheduleItem, error]
}

// OverlapPolicy decides whether items of one event may share time.
type OverlapPolicy int

const (
	OverlapAllow OverlapPolicy = iota
	OverlapReject
)

type ScheduleService struct {
	repo    ScheduleRepository
	clock   clock.Clock
	overlap OverlapPolicy
}

type ScheduleServiceOption func(*ScheduleService)

func WithOverlapPolicy(p OverlapPolicy) ScheduleServiceOption {
	return func(s *ScheduleService) {
		s.overlap = p
	}
}

func NewScheduleService(repo ScheduleRepository, clk clock.Clock, opts ...ScheduleServiceOption) *ScheduleService {
	svc := &ScheduleService{
		repo:    repo,
		clock:   clk,
		overlap: OverlapAllow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateScheduleInput struct {
	EventID     string
	Title       string
	Description string
	Speaker     string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
}

func (s *ScheduleService) Create(ctx context.Context, in CreateScheduleInput) (domain.ScheduleItem, error) {
	now := s.clock.Now()
	item := domain.ScheduleItem{
		ID:          newUUID(),
		EventID:     strings.TrimSpace(in.EventID),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Speaker:     strings.TrimSpace(in.Speaker),
		Location:    strings.TrimSpace(in.Location),
		StartTime:   in.StartTime.UTC(),
		EndTime:     in.EndTime.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if item.EventID == "" {
		return domain.ScheduleItem{}, domain.ErrEventIDRequired
	}
	if err := s.validate(item); err != nil {
		return domain.ScheduleItem{}, err
	}

	var created domain.ScheduleItem
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.LockEvent(txCtx, item.EventID); err != nil {
			return err
		}
		if err := s.checkOverlap(txCtx, item); err != nil {
			return err
		}
		var err error
		created, err = s.repo.CreateSchedule(txCtx, item)
		return err
	})
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	return created, nil
}

// Update merges patch over the stored item and re-validates the result as a
// whole, so a new start is checked against the stored end and vice versa.
func (s *ScheduleService) Update(ctx context.Context, id string, patch domain.SchedulePatch) (domain.ScheduleItem, error) {
	if id == "" {
		return domain.ScheduleItem{}, domain.ErrScheduleNotFound
	}
	current, err := s.repo.GetSchedule(ctx, id)
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	target := patch.Apply(current).EventID
	if strings.TrimSpace(target) == "" {
		return domain.ScheduleItem{}, domain.ErrEventIDRequired
	}

	var updated domain.ScheduleItem
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.LockEvent(txCtx, target); err != nil {
			return err
		}
		locked, err := s.repo.GetScheduleForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		updated = patch.Apply(locked)
		// The item may have moved to another event since the unlocked read.
		if updated.EventID != target {
			if _, err := s.repo.LockEvent(txCtx, updated.EventID); err != nil {
				return err
			}
		}
		updated.StartTime = updated.StartTime.UTC()
		updated.EndTime = updated.EndTime.UTC()
		updated.UpdatedAt = s.clock.Now()
		if err := s.validate(updated); err != nil {
			return err
		}
		if err := s.checkOverlap(txCtx, updated); err != nil {
			return err
		}
		return s.repo.UpdateSchedule(txCtx, updated)
	})
	if err != nil {
		return domain.ScheduleItem{}, err
	}
	return updated, nil
}

// Delete removes the item and returns it.
func (s *ScheduleService) Delete(ctx context.Context, id string) (domain.ScheduleItem, error) {
	if id == "" {
		return domain.ScheduleItem{}, domain.ErrScheduleNotFound
	}
	return s.repo.DeleteSchedule(ctx, id)
}

func (s *ScheduleService) Get(ctx context.Context, id string) (domain.ScheduleItem, error) {
	if id == "" {
		return domain.ScheduleItem{}, domain.ErrScheduleNotFound
	}
	return s.repo.GetSchedule(ctx, id)
}

// ListByEvent yields the agenda of eventID by start time, ties in creation
// order. Each range runs a fresh query. An empty eventID lists every event.
func (s *ScheduleService) ListByEvent(ctx context.Context, eventID string) iter.Seq2[domain.ScheduleItem, error] {
	return s.repo.ListSchedules(ctx, strings.TrimSpace(eventID))
}

func (s *ScheduleService) validate(item domain.ScheduleItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	return interval.Validate(item.StartTime, item.EndTime)
}

// checkOverlap must run with the parent event locked.
func (s *ScheduleService) checkOverlap(ctx context.Context, item domain.ScheduleItem) error {
	if s.overlap != OverlapReject {
		return nil
	}
	overlaps, err := s.repo.HasOverlap(ctx, item.EventID, item.ID, item.StartTime, item.EndTime)
	if err != nil {
		return err
	}
	if overlaps {
		return domain.ErrScheduleOverlap
	}
	return nil
}
