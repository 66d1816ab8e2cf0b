package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error roots. Every sentinel below wraps exactly one of these so callers can
// classify with errors.Is without enumerating individual failures.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrConflict         = errors.New("conflict")
	ErrTransientStorage = errors.New("storage temporarily unavailable")
	ErrDispatch         = errors.New("notification dispatch failed")
)

var roots = []error{
	ErrValidation, ErrNotFound, ErrAccessDenied, ErrCapacityExceeded,
	ErrConflict, ErrTransientStorage, ErrDispatch,
}

var (
	ErrInvalidInterval     = wrap(ErrValidation, "end time must be after start time")
	ErrMalformedTimestamp  = wrap(ErrValidation, "malformed timestamp")
	ErrEventIDRequired     = wrap(ErrValidation, "eventId is required")
	ErrTitleRequired       = wrap(ErrValidation, "title is required")
	ErrInvalidCategory     = wrap(ErrValidation, "invalid category")
	ErrInvalidCapacity     = wrap(ErrValidation, "capacity must be an integer between 0 and 2147483647")
	ErrInvalidPrice        = wrap(ErrValidation, "price must be a non-negative amount below 10000000000 with at most two decimals")
	ErrMissingAttendeeInfo = wrap(ErrValidation, "name and email are required to RSVP")
	ErrInvalidEmail        = wrap(ErrValidation, "email must be valid")
	ErrInvalidGuestCount   = wrap(ErrValidation, "guest count must be a whole number between 0 and 2147483646")
	ErrInvalidStatus       = wrap(ErrValidation, "invalid rsvp status")
	ErrValueOutOfRange     = wrap(ErrValidation, "numeric value out of range")
	ErrMessageRequired     = wrap(ErrValidation, "a message body is required")
	ErrRecipientRequired   = wrap(ErrValidation, "provide either phoneNumber or topicArn")

	ErrEventNotFound    = wrap(ErrNotFound, "event not found")
	ErrScheduleNotFound = wrap(ErrNotFound, "schedule not found")
	ErrRSVPNotFound     = wrap(ErrNotFound, "rsvp not found")

	ErrScheduleOverlap = wrap(ErrConflict, "schedule overlaps another item of the same event")
	ErrDuplicateRSVP   = wrap(ErrConflict, "rsvp already exists for this user and event")
)

func wrap(root error, msg string) error {
	return fmt.Errorf("%w: %s", root, msg)
}

// Invalid builds an ad-hoc validation error for field rules that have no
// dedicated sentinel.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// Transient marks err as retryable storage trouble while keeping the cause.
func Transient(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStorage, err)
}

// Message returns the caller-facing part of a domain error, without the
// taxonomy prefix.
func Message(err error) string {
	msg := err.Error()
	for _, root := range roots {
		if after, ok := strings.CutPrefix(msg, root.Error()+": "); ok {
			return after
		}
	}
	return msg
}
