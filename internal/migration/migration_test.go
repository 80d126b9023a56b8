package migration

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avstrong/hotelrooms/internal/booking"
	"github.com/avstrong/hotelrooms/internal/idgen/uuidgen"
	"github.com/avstrong/hotelrooms/internal/logger"
	"github.com/avstrong/hotelrooms/internal/storage/memory"
)

func TestUp_IsRepeatable(t *testing.T) {
	lr := logrus.New()
	lr.SetOutput(io.Discard)
	l := logger.New(lr)

	ctx := context.Background()
	store := memory.New(memory.Config{L: l})

	require.NoError(t, Up(ctx, l, store, uuidgen.New()))
	require.NoError(t, Up(ctx, l, store, uuidgen.New()))

	rooms, err := store.ListRooms(ctx, booking.RoomFilter{})
	require.NoError(t, err)
	require.Len(t, rooms, len(demoRooms))

	for _, room := range rooms {
		assert.Equal(t, booking.StatusAvailable, room.Status)
		assert.True(t, room.Type.Valid(), room.Type)
		assert.True(t, room.PricePerNight.IsPositive())
	}
}
