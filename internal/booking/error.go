package booking

import (
	"errors"
	"fmt"
)

// Kind classifies failures so that callers branch on it instead of on messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindStateConflict
	KindConstraint
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "Validation"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindStateConflict:
		return "StateConflict"
	case KindConstraint:
		return "Constraint"
	case KindForbidden:
		return "Forbidden"
	case KindInternal:
		return "Internal"
	}

	return "Internal"
}

type Error struct {
	kind Kind
	msg  string
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Kind() Kind {
	return e.kind
}

// Store contract errors. Storage adapters return these; the manager translates them.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrNextID         = errors.New("get next id from generator")
)

var (
	ErrForbidden = newError(KindForbidden, "operation not permitted")

	ErrRoomNotFound        = newError(KindNotFound, "room not found")
	ErrReservationNotFound = newError(KindNotFound, "reservation not found")

	ErrRoomNumberTaken      = newError(KindConflict, "room number already exists")
	ErrReservationOverlap   = newError(KindConflict, "room is already reserved for the requested dates")
	ErrDuplicateSubmission  = newError(KindConflict, "reservation has already been submitted")
	ErrIdempotencyKeyReused = newError(KindConflict, "idempotency key was used for a different reservation")

	ErrRoomHasActiveReservations = newError(KindStateConflict, "cannot set room to Available while active reservations exist")
	ErrReservationClosed         = newError(KindStateConflict, "reservation is checked out or cancelled")
	ErrIllegalReservationStep    = newError(KindStateConflict, "reservation status does not allow this operation")

	ErrRoomHasReservations = newError(KindConstraint, "cannot delete room with existing reservations")

	ErrInvalidDateRange = newError(KindValidation, "check-in date must be before check-out date")
	ErrPastCheckIn      = newError(KindValidation, "check-in date cannot be in the past")
	ErrUnknownStatus    = newError(KindValidation, "unknown room status")
)

// KindOf reports the kind of err. Anything outside the taxonomy is Internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}

	if IsInputError(err) != nil {
		return KindValidation
	}

	var kindErr *Error
	if errors.As(err, &kindErr) {
		return kindErr.kind
	}

	return KindInternal
}

// MessageOf returns the stable, user-facing message for err.
func MessageOf(err error) string {
	if IsInputError(err) != nil {
		return "invalid input"
	}

	var kindErr *Error
	if errors.As(err, &kindErr) {
		return kindErr.msg
	}

	return "internal error"
}

// AvailabilityError rejects a stay that overlaps active reservations of the room.
type AvailabilityError struct {
	roomID    string
	conflicts []string
}

func NewAvailabilityError(roomID string) *AvailabilityError {
	//nolint:exhaustruct
	return &AvailabilityError{roomID: roomID}
}

func IsAvailabilityError(err error) *AvailabilityError {
	if err == nil {
		return nil
	}

	var availabilityError *AvailabilityError

	if errors.As(err, &availabilityError) {
		return availabilityError
	}

	return nil
}

func (e *AvailabilityError) AddConflict(stay DateRange) {
	e.conflicts = append(e.conflicts, fmt.Sprintf("room '%v' is reserved for %v", e.roomID, stay))
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("%v: %+v", ErrReservationOverlap.msg, e.conflicts)
}

func (e *AvailabilityError) Unwrap() error {
	return ErrReservationOverlap
}

func (e *AvailabilityError) Conflicts() []string {
	return e.conflicts
}

func (e *AvailabilityError) ConflictsCount() int {
	return len(e.conflicts)
}

type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{
		fields: make(map[string][]string),
	}
}

func IsInputError(err error) *InputError {
	if err == nil {
		return nil
	}

	var inputError *InputError

	if errors.As(err, &inputError) {
		return inputError
	}

	return nil
}

func (ie *InputError) fieldsCount() int {
	return len(ie.fields)
}

func (ie *InputError) addError(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) Error() string {
	return fmt.Sprintf("%+v", ie.fields)
}

func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}
