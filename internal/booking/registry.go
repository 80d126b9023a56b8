package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

func (in *RegisterRoomInput) prepare() {
	in.Number = strings.TrimSpace(in.Number)
}

func (m *Manager) validateRoom(input *RegisterRoomInput) error {
	inputErr := newInputError()

	if err := m.validateStruct(input, inputErr); err != nil {
		return err
	}

	checkPrice(inputErr, input.PricePerNight)

	if inputErr.fieldsCount() > 0 {
		return inputErr
	}

	return nil
}

// ensureNumberFree fails with ErrRoomNumberTaken when another room already
// uses the number, compared case-insensitively.
func (m *Manager) ensureNumberFree(ctx context.Context, key, roomID string) error {
	existing, err := m.storage.GetRoomByNumberKey(ctx, key)
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("get room by number from storage: %w", err)
	}

	if existing.ID != roomID {
		return fmt.Errorf("room number %q: %w", key, ErrRoomNumberTaken)
	}

	return nil
}

func translateDuplicateRoom(err error) error {
	if errors.Is(err, ErrDuplicateKey) {
		return fmt.Errorf("%w: %v", ErrRoomNumberTaken, err.Error())
	}

	return err
}

func (m *Manager) RegisterRoom(ctx context.Context, input RegisterRoomInput) (*Room, error) {
	if err := m.authorize(ctx, ModuleRooms, ActionCreate); err != nil {
		return nil, err
	}

	input.prepare()

	if err := m.validateRoom(&input); err != nil {
		return nil, err
	}

	id, err := m.nextID(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()

	room := &Room{
		ID:            id,
		Number:        input.Number,
		NumberKey:     NumberKey(input.Number),
		Type:          input.Type,
		Status:        StatusAvailable,
		PricePerNight: *input.PricePerNight,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = m.inTransaction(ctx, func(ctx context.Context) error {
		if err := m.ensureNumberFree(ctx, room.NumberKey, room.ID); err != nil {
			return err
		}

		if err := m.storage.SaveRoom(ctx, room); err != nil {
			return fmt.Errorf("save room to storage: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, translateDuplicateRoom(err)
	}

	m.l.LogInfo("Room %v registered as %v", room.Number, room.ID)

	return room, nil
}

// UpdateRoom renames, retypes or reprices a room. Status changes go through ChangeRoomStatus.
func (m *Manager) UpdateRoom(ctx context.Context, id string, input UpdateRoomInput) (*Room, error) {
	if err := m.authorize(ctx, ModuleRooms, ActionUpdate); err != nil {
		return nil, err
	}

	var updated *Room

	err := m.inRoomTransaction(ctx, id, func(ctx context.Context) error {
		room, err := m.getRoom(ctx, id)
		if err != nil {
			return err
		}

		merged := RegisterRoomInput{
			Number:        room.Number,
			Type:          room.Type,
			PricePerNight: &room.PricePerNight,
		}

		if input.Number != nil {
			merged.Number = *input.Number
		}

		if input.Type != nil {
			merged.Type = *input.Type
		}

		if input.PricePerNight != nil {
			merged.PricePerNight = input.PricePerNight
		}

		merged.prepare()

		if err := m.validateRoom(&merged); err != nil {
			return err
		}

		key := NumberKey(merged.Number)
		if key != room.NumberKey {
			if err := m.ensureNumberFree(ctx, key, room.ID); err != nil {
				return err
			}
		}

		room.Number = merged.Number
		room.NumberKey = key
		room.Type = merged.Type
		room.PricePerNight = *merged.PricePerNight
		room.UpdatedAt = m.now().UTC()

		if err := m.storage.UpdateRoom(ctx, room); err != nil {
			return fmt.Errorf("update room in storage: %w", err)
		}

		updated = room

		return nil
	})
	if err != nil {
		return nil, translateDuplicateRoom(err)
	}

	return updated, nil
}

// DeleteRoom removes a room that has never been reserved. Historical
// reservations block deletion as well as active ones.
func (m *Manager) DeleteRoom(ctx context.Context, id string) error {
	if err := m.authorize(ctx, ModuleRooms, ActionDelete); err != nil {
		return err
	}

	err := m.inRoomTransaction(ctx, id, func(ctx context.Context) error {
		if _, err := m.getRoom(ctx, id); err != nil {
			return err
		}

		reservations, err := m.storage.ListReservationsByRoom(ctx, id)
		if err != nil {
			return fmt.Errorf("list reservations of room %s: %w", id, err)
		}

		if len(reservations) > 0 {
			return fmt.Errorf("room %s owns %d reservations: %w", id, len(reservations), ErrRoomHasReservations)
		}

		if err := m.storage.DeleteRoom(ctx, id); err != nil {
			return fmt.Errorf("delete room from storage: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.l.LogInfo("Room %v deleted", id)

	return nil
}

func (m *Manager) GetRoom(ctx context.Context, id string) (*Room, error) {
	if err := m.authorize(ctx, ModuleRooms, ActionRead); err != nil {
		return nil, err
	}

	return m.getRoom(ctx, id)
}

// ListRooms returns rooms ordered by number; zero filter fields match everything.
func (m *Manager) ListRooms(ctx context.Context, filter RoomFilter) ([]*Room, error) {
	if err := m.authorize(ctx, ModuleRooms, ActionRead); err != nil {
		return nil, err
	}

	inputErr := newInputError()
	if err := m.validateStruct(&filter, inputErr); err != nil {
		return nil, err
	}

	if inputErr.fieldsCount() > 0 {
		return nil, inputErr
	}

	rooms, err := m.storage.ListRooms(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list rooms from storage: %w", err)
	}

	return rooms, nil
}
