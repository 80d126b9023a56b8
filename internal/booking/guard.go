package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (in *ReserveInput) prepare() {
	in.RoomID = strings.TrimSpace(in.RoomID)
	in.GuestName = strings.TrimSpace(in.GuestName)
	in.Stay = in.Stay.normalized()
}

func (m *Manager) validateReserve(input *ReserveInput) error {
	inputErr := newInputError()

	if err := m.validateStruct(input, inputErr); err != nil {
		return err
	}

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return m.checkStay(input.Stay, false)
}

// ensureNoOverlap must run inside the room transaction of roomID. excludeID
// skips the reservation being rescheduled.
func (m *Manager) ensureNoOverlap(ctx context.Context, roomID, excludeID string, stay DateRange) error {
	reservations, err := m.storage.ListReservationsByRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("list reservations of room %s: %w", roomID, err)
	}

	today := m.today()
	availabilityErr := NewAvailabilityError(roomID)

	for _, reservation := range reservations {
		if reservation.ID == excludeID || !reservation.ActiveOn(today) {
			continue
		}

		if reservation.Stay().Overlaps(stay) {
			availabilityErr.AddConflict(reservation.Stay())
		}
	}

	if availabilityErr.ConflictsCount() > 0 {
		return availabilityErr
	}

	return nil
}

func (m *Manager) withReserveTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.reserveTimeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, m.reserveTimeout)
}

// replay returns the reservation committed earlier under the same idempotency key.
func (m *Manager) replay(ctx context.Context, key string, input *ReserveInput) (*Reservation, error) {
	existing, err := m.storage.GetReservationByIdempotencyKey(ctx, key)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil //nolint:nilnil
	}

	if err != nil {
		return nil, fmt.Errorf("get reservation by idempotency key: %w", err)
	}

	if existing.RoomID != input.RoomID || !existing.Stay().Equal(input.Stay) {
		return nil, fmt.Errorf("key %q: %w", key, ErrIdempotencyKeyReused)
	}

	return existing, nil
}

// Reserve books a room for a stay. The overlap check and the insert happen in
// one room transaction, so two overlapping requests for the same room cannot
// both succeed while requests for different rooms proceed independently.
func (m *Manager) Reserve(ctx context.Context, input ReserveInput) (*Reservation, error) {
	if err := m.authorize(ctx, ModuleReservations, ActionCreate); err != nil {
		return nil, err
	}

	input.prepare()

	if err := m.validateReserve(&input); err != nil {
		return nil, err
	}

	key, hasKey := IdempotencyKeyFromContext(ctx)
	if hasKey {
		existing, err := m.replay(ctx, key, &input)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			m.l.LogInfo("Reservation %v replayed for idempotency key %v", existing.ID, key)

			return existing, nil
		}
	}

	id, err := m.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()

	reservation := &Reservation{
		ID:        id,
		RoomID:    input.RoomID,
		GuestName: input.GuestName,
		CheckIn:   input.Stay.CheckIn,
		CheckOut:  input.Stay.CheckOut,
		Status:    ReservationConfirmed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := m.withReserveTimeout(ctx)
	defer cancel()

	err = m.inRoomTransaction(ctx, input.RoomID, func(ctx context.Context) error {
		if _, err := m.getRoom(ctx, input.RoomID); err != nil {
			return err
		}

		if err := m.ensureNoOverlap(ctx, input.RoomID, "", input.Stay); err != nil {
			return err
		}

		if err := m.storage.SaveReservation(ctx, reservation, key); err != nil {
			return fmt.Errorf("save reservation to storage: %w", err)
		}

		return nil
	})

	span := trace.SpanFromContext(ctx)

	if err != nil {
		span.AddEvent("reservation.rejected", trace.WithAttributes(
			attribute.String("room.id", input.RoomID),
			attribute.String("reason", KindOf(err).String()),
		))

		if KindOf(err) == KindInternal {
			span.SetStatus(codes.Error, err.Error())
		}

		if errors.Is(err, ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateSubmission, err.Error())
		}

		return nil, err
	}

	span.AddEvent("reservation.accepted", trace.WithAttributes(
		attribute.String("room.id", input.RoomID),
		attribute.String("reservation.id", reservation.ID),
	))

	m.l.LogInfo("Room %v reserved for %v as %v", reservation.RoomID, input.Stay, reservation.ID)

	return reservation, nil
}

// Reschedule moves a reservation to new dates, re-running the overlap check
// against every other active reservation of the room.
func (m *Manager) Reschedule(ctx context.Context, id string, stay DateRange) (*Reservation, error) {
	if err := m.authorize(ctx, ModuleReservations, ActionUpdate); err != nil {
		return nil, err
	}

	stay = stay.normalized()

	if !stay.CheckIn.Before(stay.CheckOut) {
		return nil, ErrInvalidDateRange
	}

	current, err := m.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := m.withReserveTimeout(ctx)
	defer cancel()

	var rescheduled *Reservation

	err = m.inRoomTransaction(ctx, current.RoomID, func(ctx context.Context) error {
		reservation, err := m.getReservation(ctx, id)
		if err != nil {
			return err
		}

		if !reservation.Status.Open() {
			return fmt.Errorf("reschedule reservation %s: %w", id, ErrReservationClosed)
		}

		if err := m.checkStay(stay, stay.CheckIn.Equal(reservation.CheckIn)); err != nil {
			return err
		}

		if reservation.Status == ReservationCheckedIn && !stay.CheckIn.Equal(reservation.CheckIn) {
			return fmt.Errorf("move check-in of a checked-in stay: %w", ErrIllegalReservationStep)
		}

		if err := m.ensureNoOverlap(ctx, reservation.RoomID, reservation.ID, stay); err != nil {
			return err
		}

		reservation.CheckIn = stay.CheckIn
		reservation.CheckOut = stay.CheckOut
		reservation.UpdatedAt = m.now().UTC()

		if err := m.storage.UpdateReservation(ctx, reservation); err != nil {
			return fmt.Errorf("update reservation in storage: %w", err)
		}

		rescheduled = reservation

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.l.LogInfo("Reservation %v rescheduled to %v", id, stay)

	return rescheduled, nil
}
