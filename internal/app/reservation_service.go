package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventsphere/event-service/internal/clock"
	"github.com/eventsphere/event-service/internal/domain"
	"github.com/eventsphere/event-service/internal/metrics"
	"github.com/eventsphere/event-service/internal/notify"
)

// ReservationRepository stores RSVPs. LockEvent must be taken before any RSVP
// row of that event is read for writing.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockEvent(ctx context.Context, eventID string) (domain.Event, error)
	FindRSVP(ctx context.Context, eventID, userID string) (*domain.RSVP, error)
	GetRSVP(ctx context.Context, id string) (domain.RSVP, error)
	UpsertRSVP(ctx context.Context, rsvp domain.RSVP) (domain.RSVP, bool, error)
	UpdateRSVP(ctx context.Context, rsvp domain.RSVP) error
	DeleteRSVP(ctx context.Context, id string) error
	ListRSVPs(ctx context.Context, filter domain.RSVPFilter) ([]domain.RSVP, error)
}

// Notifier sends RSVP confirmations.
type Notifier interface {
	Send(ctx context.Context, r notify.Reminder) (notify.Receipt, error)
}

type ReservationService struct {
	repo          ReservationRepository
	ledger        *Ledger
	clock         clock.Clock
	notifier      Notifier
	notifyTimeout time.Duration
	logger        zerolog.Logger
	metrics       *metrics.Metrics
	pending       sync.WaitGroup
}

const defaultNotifyTimeout = 5 * time.Second

type ReservationServiceOption func(*ReservationService)

// WithNotifier enables confirmations for committed "going" RSVPs that carry a
// phone number.
func WithNotifier(n Notifier, timeout time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		s.notifier = n
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

func WithReservationLogger(l zerolog.Logger) ReservationServiceOption {
	return func(s *ReservationService) {
		s.logger = l
	}
}

func WithReservationMetrics(m *metrics.Metrics) ReservationServiceOption {
	return func(s *ReservationService) {
		s.metrics = m
	}
}

func NewReservationService(repo ReservationRepository, ledger *Ledger, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:          repo,
		ledger:        ledger,
		clock:         clk,
		notifyTimeout: defaultNotifyTimeout,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type SubmitInput struct {
	EventID   string
	Principal domain.Principal
	Name      string
	Email     string
	Phone     string
	Status    domain.RSVPStatus
	Guests    int
	Notes     string
}

type SubmitResult struct {
	RSVP    domain.RSVP
	Created bool
}

// Submit creates or replaces the caller's RSVP for an event. The seat change
// and the write commit together or not at all.
func (s *ReservationService) Submit(ctx context.Context, in SubmitInput) (result SubmitResult, err error) {
	defer func() { s.metrics.Reservation("submit", err) }()

	if err := s.authorize(in.Principal, in.Principal.UserID); err != nil {
		return SubmitResult{}, err
	}
	eventID := strings.TrimSpace(in.EventID)
	if eventID == "" {
		return SubmitResult{}, domain.ErrEventIDRequired
	}

	status := in.Status
	if status == "" {
		status = domain.RSVPGoing
	}
	now := s.clock.Now()
	candidate := domain.RSVP{
		ID:        newUUID(),
		EventID:   eventID,
		UserID:    in.Principal.UserID,
		Name:      firstNonBlank(in.Name, in.Principal.Name),
		Email:     domain.NormalizeEmail(firstNonBlank(in.Email, in.Principal.Email)),
		Phone:     strings.TrimSpace(in.Phone),
		Status:    status,
		Guests:    in.Guests,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := candidate.Validate(); err != nil {
		return SubmitResult{}, err
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.LockEvent(txCtx, eventID); err != nil {
			return err
		}
		existing, err := s.repo.FindRSVP(txCtx, eventID, candidate.UserID)
		if err != nil {
			return err
		}
		var prev domain.Seating
		if existing != nil {
			prev = existing.Seating()
		}
		if err := s.ledger.TryReserve(txCtx, eventID, prev, candidate.Seating()); err != nil {
			return err
		}
		saved, created, err := s.repo.UpsertRSVP(txCtx, candidate)
		if err != nil {
			return err
		}
		result = SubmitResult{RSVP: saved, Created: created}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	s.confirm(ctx, result.RSVP)
	return result, nil
}

func (s *ReservationService) Get(ctx context.Context, id string, p domain.Principal) (domain.RSVP, error) {
	if !p.Authenticated() {
		return domain.RSVP{}, domain.ErrAccessDenied
	}
	if id == "" {
		return domain.RSVP{}, domain.ErrRSVPNotFound
	}
	rsvp, err := s.repo.GetRSVP(ctx, id)
	if err != nil {
		return domain.RSVP{}, err
	}
	if err := s.authorize(p, rsvp.UserID); err != nil {
		return domain.RSVP{}, err
	}
	return rsvp, nil
}

// UpdateByID applies an owner-editable patch and re-balances seats in the
// same transaction.
func (s *ReservationService) UpdateByID(ctx context.Context, id string, p domain.Principal, patch domain.RSVPPatch) (updated domain.RSVP, err error) {
	defer func() { s.metrics.Reservation("update", err) }()

	current, err := s.owned(ctx, id, p)
	if err != nil {
		return domain.RSVP{}, err
	}
	if patch.Guests != nil && *patch.Guests < 0 {
		return domain.RSVP{}, domain.ErrInvalidGuestCount
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.RSVP{}, domain.ErrInvalidStatus
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := s.relock(txCtx, current)
		if err != nil {
			return err
		}
		updated = patch.Apply(locked)
		updated.UpdatedAt = s.clock.Now()
		if err := updated.Validate(); err != nil {
			return err
		}
		if err := s.ledger.TryReserve(txCtx, locked.EventID, locked.Seating(), updated.Seating()); err != nil {
			return err
		}
		return s.repo.UpdateRSVP(txCtx, updated)
	})
	if err != nil {
		return domain.RSVP{}, err
	}
	return updated, nil
}

// DeleteByID removes the RSVP, returns its seats and reports the removed
// record.
func (s *ReservationService) DeleteByID(ctx context.Context, id string, p domain.Principal) (removed domain.RSVP, err error) {
	defer func() { s.metrics.Reservation("delete", err) }()

	current, err := s.owned(ctx, id, p)
	if err != nil {
		return domain.RSVP{}, err
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		locked, err := s.relock(txCtx, current)
		if err != nil {
			return err
		}
		if err := s.ledger.Release(txCtx, locked.EventID, locked.Seats()); err != nil {
			return err
		}
		if err := s.repo.DeleteRSVP(txCtx, locked.ID); err != nil {
			return err
		}
		removed = locked
		return nil
	})
	if err != nil {
		return domain.RSVP{}, err
	}
	return removed, nil
}

// List returns RSVPs newest first. Non-admin callers only ever see their own,
// whatever the filter asks for.
func (s *ReservationService) List(ctx context.Context, filter domain.RSVPFilter, p domain.Principal) ([]domain.RSVP, error) {
	if !p.Authenticated() {
		return nil, domain.ErrAccessDenied
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if !p.IsAdmin() {
		filter.UserID = p.UserID
	}
	return s.repo.ListRSVPs(ctx, filter)
}

// Wait blocks until in-flight confirmations have finished.
func (s *ReservationService) Wait() {
	s.pending.Wait()
}

func (s *ReservationService) authorize(p domain.Principal, ownerUserID string) error {
	return domain.Authorize(domain.OwnerOrAdmin, p, ownerUserID)
}

func (s *ReservationService) owned(ctx context.Context, id string, p domain.Principal) (domain.RSVP, error) {
	if !p.Authenticated() {
		return domain.RSVP{}, domain.ErrAccessDenied
	}
	if id == "" {
		return domain.RSVP{}, domain.ErrRSVPNotFound
	}
	rsvp, err := s.repo.GetRSVP(ctx, id)
	if err != nil {
		return domain.RSVP{}, err
	}
	if err := s.authorize(p, rsvp.UserID); err != nil {
		return domain.RSVP{}, err
	}
	return rsvp, nil
}

// relock takes the event lock and reads the RSVP again, since it may have
// changed or vanished since the unlocked read.
func (s *ReservationService) relock(ctx context.Context, current domain.RSVP) (domain.RSVP, error) {
	if _, err := s.repo.LockEvent(ctx, current.EventID); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return domain.RSVP{}, domain.ErrRSVPNotFound
		}
		return domain.RSVP{}, err
	}
	return s.repo.GetRSVP(ctx, current.ID)
}

func (s *ReservationService) confirm(ctx context.Context, rsvp domain.RSVP) {
	if s.notifier == nil || rsvp.Status != domain.RSVPGoing || rsvp.Phone == "" {
		return
	}

	reminder := notify.Reminder{
		Subject:     "RSVP confirmed",
		Message:     confirmationMessage(rsvp),
		PhoneNumber: rsvp.Phone,
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		receipt, err := s.notifier.Send(ctx, reminder)
		if err != nil {
			s.logger.Warn().Err(err).Str("rsvp_id", rsvp.ID).Msg("rsvp confirmation not sent")
			return
		}
		s.logger.Debug().
			Str("rsvp_id", rsvp.ID).
			Str("mode", receipt.Mode).
			Msg("rsvp confirmation sent")
	}()
}

func confirmationMessage(r domain.RSVP) string {
	if r.Guests == 0 {
		return fmt.Sprintf("Hi %s, your seat is confirmed.", r.Name)
	}
	return fmt.Sprintf("Hi %s, your reservation for %d seats is confirmed.", r.Name, r.Seats())
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
