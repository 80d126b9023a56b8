package booking

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(day int) time.Time {
	return time.Date(2025, time.July, day, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_Overlaps(t *testing.T) {
	existing := DateRange{CheckIn: d(26), CheckOut: d(28)}

	tests := []struct {
		name string
		stay DateRange
		want bool
	}{
		{name: "same dates", stay: DateRange{CheckIn: d(26), CheckOut: d(28)}, want: true},
		{name: "starts inside", stay: DateRange{CheckIn: d(27), CheckOut: d(29)}, want: true},
		{name: "ends inside", stay: DateRange{CheckIn: d(25), CheckOut: d(27)}, want: true},
		{name: "contains", stay: DateRange{CheckIn: d(24), CheckOut: d(30)}, want: true},
		{name: "contained", stay: DateRange{CheckIn: d(26), CheckOut: d(27)}, want: true},
		{name: "starts on check-out", stay: DateRange{CheckIn: d(28), CheckOut: d(30)}, want: false},
		{name: "ends on check-in", stay: DateRange{CheckIn: d(24), CheckOut: d(26)}, want: false},
		{name: "later", stay: DateRange{CheckIn: d(29), CheckOut: d(30)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, existing.Overlaps(tt.stay))
			assert.Equal(t, tt.want, tt.stay.Overlaps(existing), "overlap is symmetric")
		})
	}
}

func TestReservation_ActiveOn(t *testing.T) {
	today := d(20)

	tests := []struct {
		status   ReservationStatus
		checkOut time.Time
		want     bool
	}{
		{status: ReservationConfirmed, checkOut: d(22), want: true},
		{status: ReservationCheckedIn, checkOut: d(20), want: true},
		{status: ReservationConfirmed, checkOut: d(19), want: false},
		{status: ReservationCancelled, checkOut: d(22), want: false},
		{status: ReservationCheckedOut, checkOut: d(22), want: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v until %v", tt.status, tt.checkOut.Format(dateLayout)), func(t *testing.T) {
			//nolint:exhaustruct
			r := &Reservation{CheckIn: d(18), CheckOut: tt.checkOut, Status: tt.status}
			assert.Equal(t, tt.want, r.ActiveOn(today))
		})
	}
}

func TestCanEnter(t *testing.T) {
	today := d(20)
	//nolint:exhaustruct
	active := []*Reservation{{CheckIn: d(26), CheckOut: d(28), Status: ReservationConfirmed}}
	//nolint:exhaustruct
	history := []*Reservation{
		{CheckIn: d(26), CheckOut: d(28), Status: ReservationCancelled},
		{CheckIn: d(10), CheckOut: d(12), Status: ReservationConfirmed},
	}

	assert.ErrorIs(t, canEnter(StatusAvailable, active, today), ErrRoomHasActiveReservations)
	assert.NoError(t, canEnter(StatusAvailable, history, today))
	assert.NoError(t, canEnter(StatusAvailable, nil, today))

	for _, status := range roomStatuses {
		if status == StatusAvailable {
			continue
		}

		assert.NoError(t, canEnter(status, active, today), status)
	}
}

func TestToDate(t *testing.T) {
	local := time.FixedZone("UTC+3", 3*60*60)

	assert.Equal(t, d(20), ToDate(time.Date(2025, time.July, 20, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, d(19), ToDate(time.Date(2025, time.July, 20, 1, 0, 0, 0, local)))
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate(" 2025-07-26 ")
	require.NoError(t, err)
	assert.Equal(t, d(26), parsed)

	_, err = ParseDate("26/07/2025")
	assert.Error(t, err)
}

func TestNumberKey(t *testing.T) {
	assert.Equal(t, NumberKey("A1"), NumberKey(" a1 "))
	assert.NotEqual(t, NumberKey("101"), NumberKey("1010"))
}

func TestKindOf(t *testing.T) {
	inputErr := newInputError()
	inputErr.addError("type", "is required")

	availabilityErr := NewAvailabilityError("204")
	availabilityErr.AddConflict(DateRange{CheckIn: d(26), CheckOut: d(28)})

	tests := []struct {
		name    string
		err     error
		kind    Kind
		message string
	}{
		{name: "wrapped sentinel", err: fmt.Errorf("room x: %w", ErrRoomNotFound), kind: KindNotFound, message: "room not found"},
		{name: "input", err: fmt.Errorf("validate: %w", inputErr), kind: KindValidation, message: "invalid input"},
		{name: "availability", err: availabilityErr, kind: KindConflict, message: ErrReservationOverlap.Error()},
		{name: "unknown", err: errors.New("boom"), kind: KindInternal, message: "internal error"},
		{name: "constraint", err: ErrRoomHasReservations, kind: KindConstraint, message: "cannot delete room with existing reservations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, KindOf(tt.err))
			assert.Equal(t, tt.message, MessageOf(tt.err))
		})
	}

	assert.Equal(t, []string{"room '204' is reserved for 2025-07-26..2025-07-28"}, availabilityErr.Conflicts())
}

func TestCheckPrice(t *testing.T) {
	for value, valid := range map[string]bool{
		"0":      true,
		"99.9":   true,
		"99.99":  true,
		"99.999": false,
		"-0.01":  false,
	} {
		inputErr := newInputError()
		price := decimal.RequireFromString(value)

		checkPrice(inputErr, &price)

		assert.Equal(t, valid, inputErr.fieldsCount() == 0, value)
	}
}
