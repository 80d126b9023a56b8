package web

import (
	"time"

	"github.com/avstrong/hotelrooms/internal/booking"
)

const dateLayout = "2006-01-02"

type roomResponse struct {
	ID            string    `json:"id"`
	RoomNumber    string    `json:"roomNumber"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	PricePerNight float64   `json:"pricePerNight"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toRoomResponse(room *booking.Room) roomResponse {
	return roomResponse{
		ID:            room.ID,
		RoomNumber:    room.Number,
		Type:          string(room.Type),
		Status:        string(room.Status),
		PricePerNight: room.PricePerNight.InexactFloat64(),
		CreatedAt:     room.CreatedAt,
		UpdatedAt:     room.UpdatedAt,
	}
}

type availableRoomResponse struct {
	ID            string  `json:"id"`
	RoomNumber    string  `json:"roomNumber"`
	Type          string  `json:"type"`
	PricePerNight float64 `json:"pricePerNight"`
	IsAvailable   bool    `json:"isAvailable"`
}

type reservationResponse struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	GuestName string    `json:"guestName,omitempty"`
	CheckIn   string    `json:"checkIn"`
	CheckOut  string    `json:"checkOut"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReservationResponse(reservation *booking.Reservation) reservationResponse {
	return reservationResponse{
		ID:        reservation.ID,
		RoomID:    reservation.RoomID,
		GuestName: reservation.GuestName,
		CheckIn:   reservation.CheckIn.Format(dateLayout),
		CheckOut:  reservation.CheckOut.Format(dateLayout),
		Status:    string(reservation.Status),
		CreatedAt: reservation.CreatedAt,
		UpdatedAt: reservation.UpdatedAt,
	}
}

type reserveRequest struct {
	RoomID    string `json:"roomId"`
	GuestName string `json:"guestName"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`
}

type stayRequest struct {
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
}

type statusRequest struct {
	Status string `json:"status"`
}
