package booking

import (
	"context"
	"fmt"
	"sort"
)

// FindAvailable lists rooms that are bookable for the whole stay. It is
// advisory: it takes no locks, and Reserve re-checks under the room lock.
func (m *Manager) FindAvailable(ctx context.Context, stay DateRange) ([]AvailableRoom, error) {
	if err := m.authorize(ctx, ModuleRooms, ActionRead); err != nil {
		return nil, err
	}

	stay = stay.normalized()

	if err := m.checkStay(stay, false); err != nil {
		return nil, err
	}

	//nolint:exhaustruct
	rooms, err := m.storage.ListRooms(ctx, RoomFilter{Status: StatusAvailable})
	if err != nil {
		return nil, fmt.Errorf("list available rooms from storage: %w", err)
	}

	open, err := m.storage.ListReservationsByStatus(ctx, ReservationConfirmed, ReservationCheckedIn)
	if err != nil {
		return nil, fmt.Errorf("list open reservations from storage: %w", err)
	}

	today := m.today()
	busy := make(map[string]struct{})

	for _, reservation := range open {
		if reservation.ActiveOn(today) && reservation.Stay().Overlaps(stay) {
			busy[reservation.RoomID] = struct{}{}
		}
	}

	result := make([]AvailableRoom, 0, len(rooms))

	for _, room := range rooms {
		if _, ok := busy[room.ID]; ok {
			continue
		}

		result = append(result, AvailableRoom{
			ID:            room.ID,
			Number:        room.Number,
			Type:          room.Type,
			PricePerNight: room.PricePerNight,
			IsAvailable:   true,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}

		return NumberKey(result[i].Number) < NumberKey(result[j].Number)
	})

	return result, nil
}
