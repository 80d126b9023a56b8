package gormdb

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/avstrong/hotelrooms/internal/booking"
)

type roomRow struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)"`
	Number        string          `gorm:"type:varchar(20);not null"`
	NumberKey     string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	Type          string          `gorm:"type:varchar(16);not null;index"`
	Status        string          `gorm:"type:varchar(16);not null;index"`
	PricePerNight decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (roomRow) TableName() string {
	return "rooms"
}

// reservationRow.IdempotencyKey is nullable so that the unique index only
// applies to submissions that carried a key.
type reservationRow struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)"`
	RoomID         string         `gorm:"type:varchar(36);not null;index"`
	GuestName      string         `gorm:"type:varchar(100)"`
	CheckIn        datatypes.Date `gorm:"not null"`
	CheckOut       datatypes.Date `gorm:"not null"`
	Status         string         `gorm:"type:varchar(16);not null;index"`
	IdempotencyKey *string        `gorm:"type:varchar(128);uniqueIndex"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (reservationRow) TableName() string {
	return "reservations"
}

func fromRoom(room *booking.Room) roomRow {
	return roomRow{
		ID:            room.ID,
		Number:        room.Number,
		NumberKey:     room.NumberKey,
		Type:          string(room.Type),
		Status:        string(room.Status),
		PricePerNight: room.PricePerNight,
		CreatedAt:     room.CreatedAt,
		UpdatedAt:     room.UpdatedAt,
	}
}

func (r *roomRow) toRoom() *booking.Room {
	return &booking.Room{
		ID:            r.ID,
		Number:        r.Number,
		NumberKey:     r.NumberKey,
		Type:          booking.RoomType(r.Type),
		Status:        booking.RoomStatus(r.Status),
		PricePerNight: r.PricePerNight,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func fromReservation(reservation *booking.Reservation, idempotencyKey string) reservationRow {
	var key *string
	if idempotencyKey != "" {
		key = &idempotencyKey
	}

	return reservationRow{
		ID:             reservation.ID,
		RoomID:         reservation.RoomID,
		GuestName:      reservation.GuestName,
		CheckIn:        datatypes.Date(reservation.CheckIn),
		CheckOut:       datatypes.Date(reservation.CheckOut),
		Status:         string(reservation.Status),
		IdempotencyKey: key,
		CreatedAt:      reservation.CreatedAt,
		UpdatedAt:      reservation.UpdatedAt,
	}
}

func (r *reservationRow) toReservation() *booking.Reservation {
	return &booking.Reservation{
		ID:        r.ID,
		RoomID:    r.RoomID,
		GuestName: r.GuestName,
		CheckIn:   booking.ToDate(time.Time(r.CheckIn)),
		CheckOut:  booking.ToDate(time.Time(r.CheckOut)),
		Status:    booking.ReservationStatus(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toReservations(rows []reservationRow) []*booking.Reservation {
	reservations := make([]*booking.Reservation, 0, len(rows))
	for i := range rows {
		reservations = append(reservations, rows[i].toReservation())
	}

	return reservations
}
