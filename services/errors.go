package services

import (
	"errors"
	"fmt"
	"strings"

	"frontdesk-server/models"
	"frontdesk-server/storage"

	"github.com/go-playground/validator/v10"
)

// Error kinds surfaced to callers. Every error returned by this package wraps
// exactly one of them; match with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrOverlap             = errors.New("room is not free for the requested dates")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPrematureTransition = errors.New("transition attempted outside the stay dates")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAlreadyRefunded     = errors.New("payment already refunded")
	ErrConsistency         = errors.New("inconsistent with reservation state")
)

// OverlapError names the reservation that holds the requested nights.
type OverlapError struct {
	RoomID        string
	Requested     models.DateRange
	ReservationID string
	Held          models.DateRange
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: room %s %s collides with reservation %s %s",
		ErrOverlap, e.RoomID, e.Requested, e.ReservationID, e.Held)
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// TransitionError reports an event that is not legal from the current status.
type TransitionError struct {
	ReservationID string
	From          models.ReservationStatus
	Event         Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s reservation %s while %s", ErrInvalidTransition, e.Event, e.ReservationID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

// lookup translates storage misses into ErrNotFound.
func lookup(err error, kind, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(kind, id)
	}
	return err
}

// unique turns a uniqueness conflict raised by the store, such as two
// writers racing on one room number, into a validation error.
func unique(err error) error {
	if errors.Is(err, storage.ErrDuplicate) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

var validate = validator.New()

// validateStruct runs the validator tags and folds the field errors into a
// single ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, ", "))
}
