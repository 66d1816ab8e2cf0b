package domain

import (
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryConference Category = "conference"
	CategoryWorkshop   Category = "workshop"
	CategorySeminar    Category = "seminar"
	CategoryConcert    Category = "concert"
	CategorySports     Category = "sports"
	CategoryFestival   Category = "festival"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryConference, CategoryWorkshop, CategorySeminar,
		CategoryConcert, CategorySports, CategoryFestival:
		return true
	}
	return false
}

// Event is a bookable happening with a fixed total capacity. AvailableSeats is
// owned by the capacity ledger and is never taken from client input.
type Event struct {
	ID             string
	Title          string
	Description    string
	Category       Category
	Venue          string
	Date           time.Time
	Capacity       int
	AvailableSeats int
	Price          decimal.Decimal
	Organizer      string
	CreatedAt      time.Time
}

// Upper bounds of the stored seat columns.
const (
	MaxCapacity = math.MaxInt32
	MaxGuests   = math.MaxInt32 - 1
)

// MaxPrice is the first amount that no longer fits the stored price column.
var MaxPrice = decimal.New(1, 10)

// ValidCapacity reports whether n can be stored as an event capacity.
func ValidCapacity(n int) bool {
	return n >= 0 && n <= MaxCapacity
}

// ValidPrice reports whether p is non-negative, in whole cents and below
// MaxPrice.
func ValidPrice(p decimal.Decimal) bool {
	return !p.IsNegative() && p.Equal(p.Truncate(2)) && p.LessThan(MaxPrice)
}

// ConsumedSeats is the number of seats currently held by reservations.
func (e Event) ConsumedSeats() int {
	return e.Capacity - e.AvailableSeats
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleRequired
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if !ValidCapacity(e.Capacity) {
		return ErrInvalidCapacity
	}
	if !ValidPrice(e.Price) {
		return ErrInvalidPrice
	}
	return Invalid(validation.ValidateStruct(&e,
		validation.Field(&e.Title, validation.RuneLength(0, 120)),
		validation.Field(&e.Description, validation.RuneLength(0, 2000)),
		validation.Field(&e.Venue, validation.Required, validation.RuneLength(0, 160)),
		validation.Field(&e.Organizer, validation.RuneLength(0, 120)),
		validation.Field(&e.Date, validation.Required),
	))
}
