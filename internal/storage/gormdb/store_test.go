package gormdb

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avstrong/hotelrooms/internal/auth"
	"github.com/avstrong/hotelrooms/internal/booking"
	"github.com/avstrong/hotelrooms/internal/idgen/uuidgen"
	"github.com/avstrong/hotelrooms/internal/logger"
)

// SQLite has no row locks; a single connection serializes transactions
// instead, so these tests stay sequential.
func newStore(t *testing.T) (*Store, *logger.Logger) {
	t.Helper()

	lr := logrus.New()
	lr.SetOutput(io.Discard)
	l := logger.New(lr)

	store, err := Open(sqlite.Open(filepath.Join(t.TempDir(), "hotel.db")), l)
	require.NoError(t, err)

	sqlDB, err := store.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store, l
}

func newManager(t *testing.T) (*booking.Manager, *Store, context.Context) {
	t.Helper()

	store, l := newStore(t)

	enforcer, err := auth.New(auth.DefaultPermissions())
	require.NoError(t, err)

	now := time.Date(2025, time.July, 20, 9, 0, 0, 0, time.UTC)
	m := booking.New(l, store, uuidgen.New(), enforcer, booking.WithClock(func() time.Time { return now }))

	return m, store, auth.NewContextWithRole(context.Background(), "admin")
}

func july(from, to int) booking.DateRange {
	return booking.DateRange{
		CheckIn:  time.Date(2025, time.July, from, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, time.July, to, 0, 0, 0, 0, time.UTC),
	}
}

func registerRoom(t *testing.T, m *booking.Manager, ctx context.Context, number string) *booking.Room {
	t.Helper()

	price := decimal.RequireFromString("149.99")

	room, err := m.RegisterRoom(ctx, booking.RegisterRoomInput{
		Number:        number,
		Type:          booking.RoomTypeDouble,
		PricePerNight: &price,
	})
	require.NoError(t, err)

	return room
}

func TestStore_RoomRoundTrip(t *testing.T) {
	m, _, ctx := newManager(t)
	room := registerRoom(t, m, ctx, "204")

	stored, err := m.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "204", stored.Number)
	assert.Equal(t, booking.RoomTypeDouble, stored.Type)
	assert.Equal(t, booking.StatusAvailable, stored.Status)
	assert.True(t, stored.PricePerNight.Equal(decimal.RequireFromString("149.99")))

	_, err = m.RegisterRoom(ctx, booking.RegisterRoomInput{
		Number:        " 204",
		Type:          booking.RoomTypeSingle,
		PricePerNight: &stored.PricePerNight,
	})
	require.ErrorIs(t, err, booking.ErrRoomNumberTaken)

	_, err = m.GetRoom(ctx, "missing")
	require.ErrorIs(t, err, booking.ErrRoomNotFound)
}

func TestStore_ReserveAndOverlap(t *testing.T) {
	m, _, ctx := newManager(t)
	room := registerRoom(t, m, ctx, "204")

	first, err := m.Reserve(ctx, booking.ReserveInput{RoomID: room.ID, GuestName: "Ada", Stay: july(26, 28)})
	require.NoError(t, err)

	_, err = m.Reserve(ctx, booking.ReserveInput{RoomID: room.ID, Stay: july(27, 29)})
	require.ErrorIs(t, err, booking.ErrReservationOverlap)

	_, err = m.Reserve(ctx, booking.ReserveInput{RoomID: room.ID, Stay: july(28, 30)})
	require.NoError(t, err)

	reservations, err := m.ListRoomReservations(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, reservations, 2)
	assert.Equal(t, first.ID, reservations[0].ID)
	assert.True(t, reservations[0].CheckIn.Equal(july(26, 28).CheckIn))
	assert.Equal(t, "Ada", reservations[0].GuestName)

	available, err := m.FindAvailable(ctx, july(26, 28))
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestStore_IdempotentReserve(t *testing.T) {
	m, _, ctx := newManager(t)
	room := registerRoom(t, m, ctx, "204")
	keyed := booking.NewContextWithIdempotencyKey(ctx, "req-42")

	first, err := m.Reserve(keyed, booking.ReserveInput{RoomID: room.ID, Stay: july(26, 28)})
	require.NoError(t, err)

	again, err := m.Reserve(keyed, booking.ReserveInput{RoomID: room.ID, Stay: july(26, 28)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	// Reservations without a key do not collide on the nullable unique index.
	_, err = m.Reserve(ctx, booking.ReserveInput{RoomID: room.ID, Stay: july(28, 29)})
	require.NoError(t, err)
	_, err = m.Reserve(ctx, booking.ReserveInput{RoomID: room.ID, Stay: july(29, 30)})
	require.NoError(t, err)
}

func TestStore_StatusAndLifecycle(t *testing.T) {
	m, _, ctx := newManager(t)
	room := registerRoom(t, m, ctx, "204")

	reservation, err := m.Reserve(ctx, booking.ReserveInput{RoomID: room.ID, Stay: july(26, 28)})
	require.NoError(t, err)

	_, err = m.ChangeRoomStatus(ctx, room.ID, booking.StatusAvailable)
	require.ErrorIs(t, err, booking.ErrRoomHasActiveReservations)

	_, err = m.CheckIn(ctx, reservation.ID)
	require.NoError(t, err)

	_, err = m.ChangeRoomStatus(ctx, room.ID, booking.StatusOccupied)
	require.NoError(t, err)

	_, err = m.CheckOut(ctx, reservation.ID)
	require.NoError(t, err)

	updated, err := m.ChangeRoomStatus(ctx, room.ID, booking.StatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusAvailable, updated.Status)

	require.ErrorIs(t, m.DeleteRoom(ctx, room.ID), booking.ErrRoomHasReservations)
}

func TestStore_Reschedule(t *testing.T) {
	m, _, ctx := newManager(t)
	room := registerRoom(t, m, ctx, "204")

	reservation, err := m.Reserve(ctx, booking.ReserveInput{RoomID: room.ID, Stay: july(26, 28)})
	require.NoError(t, err)

	moved, err := m.Reschedule(ctx, reservation.ID, july(27, 29))
	require.NoError(t, err)
	assert.True(t, moved.CheckOut.Equal(july(27, 29).CheckOut))

	stored, err := m.GetReservation(ctx, reservation.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckIn.Equal(july(27, 29).CheckIn))
}

func TestStore_RollbackAndForeignWrites(t *testing.T) {
	m, store, ctx := newManager(t)
	room := registerRoom(t, m, ctx, "204")

	require.ErrorIs(t, store.SaveRoom(ctx, room), ErrTransactionNotFoundInCtx)

	trxCtx, err := store.BeginRoomTransaction(ctx, room.ID)
	require.NoError(t, err)

	//nolint:exhaustruct
	reservation := &booking.Reservation{
		ID:       "res-1",
		RoomID:   room.ID,
		CheckIn:  july(26, 28).CheckIn,
		CheckOut: july(26, 28).CheckOut,
		Status:   booking.ReservationConfirmed,
	}
	require.NoError(t, store.SaveReservation(trxCtx, reservation, ""))

	foreign := *reservation
	foreign.ID = "res-2"
	foreign.RoomID = "other"
	require.ErrorIs(t, store.SaveReservation(trxCtx, &foreign, ""), ErrForeignRoom)

	require.NoError(t, store.RollbackTransaction(trxCtx))

	_, err = store.GetReservation(ctx, "res-1")
	require.ErrorIs(t, err, booking.ErrRecordNotFound)

	// Locking a room that does not exist is not an error; the caller reports it.
	trxCtx, err = store.BeginRoomTransaction(ctx, "missing")
	require.NoError(t, err)
	require.ErrorIs(t, store.UpdateRoom(trxCtx, &booking.Room{ID: "missing"}), booking.ErrRecordNotFound) //nolint:exhaustruct
	require.NoError(t, store.RollbackTransaction(trxCtx))
}
