package booking

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type RoomType string

const (
	RoomTypeStandard RoomType = "Standard"
	RoomTypeDeluxe   RoomType = "Deluxe"
	RoomTypeSuite    RoomType = "Suite"
	RoomTypeSingle   RoomType = "Single"
	RoomTypeDouble   RoomType = "Double"
	RoomTypeTwin     RoomType = "Twin"
	RoomTypeFamily   RoomType = "Family"
)

//nolint:gochecknoglobals
var roomTypes = []RoomType{
	RoomTypeStandard,
	RoomTypeDeluxe,
	RoomTypeSuite,
	RoomTypeSingle,
	RoomTypeDouble,
	RoomTypeTwin,
	RoomTypeFamily,
}

func (t RoomType) Valid() bool {
	for _, known := range roomTypes {
		if t == known {
			return true
		}
	}

	return false
}

// RoomStatus is the operational state of a room, independent of any reservation.
type RoomStatus string

const (
	StatusAvailable   RoomStatus = "Available"
	StatusOccupied    RoomStatus = "Occupied"
	StatusCleaning    RoomStatus = "Cleaning"
	StatusMaintenance RoomStatus = "Maintenance"
	StatusReserved    RoomStatus = "Reserved"
	StatusOutOfOrder  RoomStatus = "Out of Order"
)

//nolint:gochecknoglobals
var roomStatuses = []RoomStatus{
	StatusAvailable,
	StatusOccupied,
	StatusCleaning,
	StatusMaintenance,
	StatusReserved,
	StatusOutOfOrder,
}

func (s RoomStatus) Valid() bool {
	for _, known := range roomStatuses {
		if s == known {
			return true
		}
	}

	return false
}

type ReservationStatus string

const (
	ReservationConfirmed  ReservationStatus = "Confirmed"
	ReservationCheckedIn  ReservationStatus = "Checked In"
	ReservationCheckedOut ReservationStatus = "Checked Out"
	ReservationCancelled  ReservationStatus = "Cancelled"
)

// Open reports whether the reservation still holds the room. Checked out and
// cancelled reservations are read-only history.
func (s ReservationStatus) Open() bool {
	return s == ReservationConfirmed || s == ReservationCheckedIn
}

type Room struct {
	ID            string          `json:"id"`
	Number        string          `json:"roomNumber"`
	NumberKey     string          `json:"-"`
	Type          RoomType        `json:"type"`
	Status        RoomStatus      `json:"status"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Reservation struct {
	ID        string            `json:"id"`
	RoomID    string            `json:"roomId"`
	GuestName string            `json:"guestName"`
	CheckIn   time.Time         `json:"checkIn"`
	CheckOut  time.Time         `json:"checkOut"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (r *Reservation) Stay() DateRange {
	return DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// ActiveOn reports whether the reservation commits the room on or after today:
// it is Confirmed or Checked In and its check-out date has not passed.
func (r *Reservation) ActiveOn(today time.Time) bool {
	return r.Status.Open() && !ToDate(r.CheckOut).Before(ToDate(today))
}

// DateRange is a stay expressed as the half-open interval [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
}

// Overlaps uses half-open semantics: a stay ending the day another begins
// does not overlap it.
func (d DateRange) Overlaps(other DateRange) bool {
	return d.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(d.CheckOut)
}

func (d DateRange) Equal(other DateRange) bool {
	return d.CheckIn.Equal(other.CheckIn) && d.CheckOut.Equal(other.CheckOut)
}

func (d DateRange) String() string {
	return d.CheckIn.Format(dateLayout) + ".." + d.CheckOut.Format(dateLayout)
}

func (d DateRange) normalized() DateRange {
	return DateRange{CheckIn: ToDate(d.CheckIn), CheckOut: ToDate(d.CheckOut)}
}

// ToDate drops the time of day, keeping the UTC calendar date.
func ToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err //nolint:wrapcheck
	}

	return t, nil
}

// NumberKey is the normalized form used for case-insensitive room number uniqueness.
func NumberKey(number string) string {
	return strings.ToLower(strings.TrimSpace(number))
}

type RegisterRoomInput struct {
	Number        string           `json:"roomNumber"    validate:"required,max=20"`
	Type          RoomType         `json:"type"          validate:"required,room_type"`
	PricePerNight *decimal.Decimal `json:"pricePerNight" validate:"required"`
}

// UpdateRoomInput carries a partial update; nil fields are left unchanged.
type UpdateRoomInput struct {
	Number        *string          `json:"roomNumber"`
	Type          *RoomType        `json:"type"`
	PricePerNight *decimal.Decimal `json:"pricePerNight"`
}

type RoomFilter struct {
	Type   RoomType   `json:"type"   validate:"omitempty,room_type"`
	Status RoomStatus `json:"status" validate:"omitempty,room_status"`
}

func (f RoomFilter) Match(room *Room) bool {
	if f.Type != "" && room.Type != f.Type {
		return false
	}

	if f.Status != "" && room.Status != f.Status {
		return false
	}

	return true
}

type AvailableRoom struct {
	ID            string          `json:"id"`
	Number        string          `json:"roomNumber"`
	Type          RoomType        `json:"type"`
	PricePerNight decimal.Decimal `json:"pricePerNight"`
	IsAvailable   bool            `json:"isAvailable"`
}

type ReserveInput struct {
	RoomID    string    `json:"roomId"    validate:"required"`
	GuestName string    `json:"guestName" validate:"max=100"`
	Stay      DateRange `json:"stay"`
}
