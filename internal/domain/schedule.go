package domain

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ScheduleItem is a time-boxed sub-session of an event.
type ScheduleItem struct {
	ID          string
	EventID     string
	Title       string
	Description string
	Speaker     string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	// Seq is assigned by storage on insert and breaks ordering ties between
	// items that start at the same instant.
	Seq       int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks field rules. The interval itself is checked by package
// interval.
func (s ScheduleItem) Validate() error {
	if s.EventID == "" {
		return ErrEventIDRequired
	}
	if strings.TrimSpace(s.Title) == "" {
		return ErrTitleRequired
	}
	return Invalid(validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.RuneLength(0, 120)),
		validation.Field(&s.Description, validation.RuneLength(0, 2000)),
		validation.Field(&s.Speaker, validation.RuneLength(0, 120)),
		validation.Field(&s.Location, validation.RuneLength(0, 160)),
	))
}

// Overlaps reports whether the half-open intervals [start, end) intersect.
func (s ScheduleItem) Overlaps(o ScheduleItem) bool {
	return s.StartTime.Before(o.EndTime) && o.StartTime.Before(s.EndTime)
}

// SchedulePatch carries the fields of a partial schedule update; nil means
// unchanged.
type SchedulePatch struct {
	EventID     *string
	Title       *string
	Description *string
	Speaker     *string
	Location    *string
	StartTime   *time.Time
	EndTime     *time.Time
}

// Apply returns item with the patch merged over it.
func (p SchedulePatch) Apply(item ScheduleItem) ScheduleItem {
	if p.EventID != nil {
		item.EventID = *p.EventID
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Speaker != nil {
		item.Speaker = *p.Speaker
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.StartTime != nil {
		item.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		item.EndTime = *p.EndTime
	}
	return item
}
