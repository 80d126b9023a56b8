package booking

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// canEnter applies the only transition rule the core enforces: a room that is
// committed to a guest cannot be marked Available.
func canEnter(target RoomStatus, reservations []*Reservation, today time.Time) error {
	if target != StatusAvailable {
		return nil
	}

	for _, reservation := range reservations {
		if reservation.ActiveOn(today) {
			return ErrRoomHasActiveReservations
		}
	}

	return nil
}

func (m *Manager) ChangeRoomStatus(ctx context.Context, id string, status RoomStatus) (*Room, error) {
	if err := m.authorize(ctx, ModuleRooms, ActionUpdate); err != nil {
		return nil, err
	}

	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, ErrUnknownStatus)
	}

	var (
		updated  *Room
		previous RoomStatus
	)

	err := m.inRoomTransaction(ctx, id, func(ctx context.Context) error {
		room, err := m.getRoom(ctx, id)
		if err != nil {
			return err
		}

		reservations, err := m.storage.ListReservationsByRoom(ctx, id)
		if err != nil {
			return fmt.Errorf("list reservations of room %s: %w", id, err)
		}

		if err := canEnter(status, reservations, m.today()); err != nil {
			return fmt.Errorf("room %s to %v: %w", id, status, err)
		}

		previous = room.Status
		room.Status = status
		room.UpdatedAt = m.now().UTC()

		if err := m.storage.UpdateRoom(ctx, room); err != nil {
			return fmt.Errorf("update room status in storage: %w", err)
		}

		updated = room

		return nil
	})
	if err != nil {
		return nil, err
	}

	trace.SpanFromContext(ctx).AddEvent("room.status_changed", trace.WithAttributes(
		attribute.String("room.id", id),
		attribute.String("from", string(previous)),
		attribute.String("to", string(status)),
	))

	m.l.LogInfo("Room %v status changed from %v to %v", id, previous, status)

	return updated, nil
}
