package domain

import (
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type RSVPStatus string

const (
	RSVPGoing      RSVPStatus = "going"
	RSVPInterested RSVPStatus = "interested"
	RSVPDeclined   RSVPStatus = "declined"
	RSVPCancelled  RSVPStatus = "cancelled"
)

func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPGoing, RSVPInterested, RSVPDeclined, RSVPCancelled:
		return true
	}
	return false
}

// ParseRSVPStatus accepts a status from client input; empty means going.
func ParseRSVPStatus(raw string) (RSVPStatus, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return RSVPGoing, nil
	}
	s := RSVPStatus(raw)
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// SeatCost is the number of seats a reservation in the given state holds: the
// attendee plus guests when going, nothing otherwise.
func SeatCost(status RSVPStatus, guests int) int {
	if status != RSVPGoing {
		return 0
	}
	return 1 + min(max(guests, 0), MaxGuests)
}

// RSVP is a single user's reservation against an event. At most one exists per
// (EventID, UserID).
type RSVP struct {
	ID        string
	EventID   string
	UserID    string
	Name      string
	Email     string
	Phone     string
	Status    RSVPStatus
	Guests    int
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r RSVP) Seats() int {
	return SeatCost(r.Status, r.Guests)
}

func (r RSVP) Seating() Seating {
	return Seating{Status: r.Status, Guests: r.Guests}
}

// Seating is the part of an RSVP that decides how many seats it holds. The
// zero value stands for no reservation.
type Seating struct {
	Status RSVPStatus
	Guests int
}

func (s Seating) Cost() int {
	return SeatCost(s.Status, s.Guests)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var emailPattern = validation.Match(regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`))

func (r RSVP) Validate() error {
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" {
		return ErrMissingAttendeeInfo
	}
	if validation.Validate(r.Email, emailPattern) != nil {
		return ErrInvalidEmail
	}
	if r.Guests < 0 || r.Guests > MaxGuests {
		return ErrInvalidGuestCount
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	return Invalid(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.RuneLength(0, 120)),
		validation.Field(&r.Phone, validation.RuneLength(0, 32)),
		validation.Field(&r.Notes, validation.RuneLength(0, 2000)),
	))
}

// RSVPPatch carries the owner-editable fields of an RSVP; nil means unchanged.
type RSVPPatch struct {
	Status *RSVPStatus
	Guests *int
	Notes  *string
	Phone  *string
}

func (p RSVPPatch) Apply(r RSVP) RSVP {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Guests != nil {
		r.Guests = *p.Guests
	}
	if p.Notes != nil {
		r.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.Phone != nil {
		r.Phone = strings.TrimSpace(*p.Phone)
	}
	return r
}

// RSVPFilter narrows List results. Empty fields match everything.
type RSVPFilter struct {
	EventID string
	UserID  string
	Status  RSVPStatus
}
