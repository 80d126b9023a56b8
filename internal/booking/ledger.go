package booking

import (
	"context"
	"fmt"
)

func (m *Manager) GetReservation(ctx context.Context, id string) (*Reservation, error) {
	if err := m.authorize(ctx, ModuleReservations, ActionRead); err != nil {
		return nil, err
	}

	return m.getReservation(ctx, id)
}

// ListRoomReservations returns the room's whole ledger, history included, by check-in date.
func (m *Manager) ListRoomReservations(ctx context.Context, roomID string) ([]*Reservation, error) {
	if err := m.authorize(ctx, ModuleReservations, ActionRead); err != nil {
		return nil, err
	}

	if _, err := m.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	reservations, err := m.storage.ListReservationsByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("list reservations of room %s: %w", roomID, err)
	}

	return reservations, nil
}

func (m *Manager) CancelReservation(ctx context.Context, id string) (*Reservation, error) {
	return m.advance(ctx, id, ReservationCancelled, ReservationConfirmed, ReservationCheckedIn)
}

func (m *Manager) CheckIn(ctx context.Context, id string) (*Reservation, error) {
	return m.advance(ctx, id, ReservationCheckedIn, ReservationConfirmed)
}

func (m *Manager) CheckOut(ctx context.Context, id string) (*Reservation, error) {
	return m.advance(ctx, id, ReservationCheckedOut, ReservationCheckedIn)
}

// advance moves a reservation to target when its current status is one of from.
func (m *Manager) advance(
	ctx context.Context,
	id string,
	target ReservationStatus,
	from ...ReservationStatus,
) (*Reservation, error) {
	if err := m.authorize(ctx, ModuleReservations, ActionUpdate); err != nil {
		return nil, err
	}

	current, err := m.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	var advanced *Reservation

	err = m.inRoomTransaction(ctx, current.RoomID, func(ctx context.Context) error {
		reservation, err := m.getReservation(ctx, id)
		if err != nil {
			return err
		}

		if !reservation.Status.Open() {
			return fmt.Errorf("move reservation %s to %v: %w", id, target, ErrReservationClosed)
		}

		if !statusIn(reservation.Status, from) {
			return fmt.Errorf("move reservation %s from %v to %v: %w", id, reservation.Status, target, ErrIllegalReservationStep)
		}

		reservation.Status = target
		reservation.UpdatedAt = m.now().UTC()

		if err := m.storage.UpdateReservation(ctx, reservation); err != nil {
			return fmt.Errorf("update reservation in storage: %w", err)
		}

		advanced = reservation

		return nil
	})
	if err != nil {
		return nil, err
	}

	m.l.LogInfo("Reservation %v is now %v", id, target)

	return advanced, nil
}

func statusIn(status ReservationStatus, statuses []ReservationStatus) bool {
	for _, candidate := range statuses {
		if status == candidate {
			return true
		}
	}

	return false
}
