package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avstrong/hotelrooms/internal/booking"
	"github.com/avstrong/hotelrooms/internal/logger"
)

type storage interface {
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	GetRoomByNumberKey(ctx context.Context, key string) (*booking.Room, error)
	SaveRoom(ctx context.Context, room *booking.Room) error
}

type idGenerator interface {
	GetID(ctx context.Context) (string, error)
}

type seedRoom struct {
	number string
	kind   booking.RoomType
	price  string
}

//nolint:gochecknoglobals
var demoRooms = []seedRoom{
	{number: "101", kind: booking.RoomTypeSingle, price: "79.00"},
	{number: "102", kind: booking.RoomTypeSingle, price: "79.00"},
	{number: "103", kind: booking.RoomTypeStandard, price: "99.00"},
	{number: "201", kind: booking.RoomTypeDouble, price: "129.00"},
	{number: "202", kind: booking.RoomTypeTwin, price: "129.00"},
	{number: "203", kind: booking.RoomTypeDeluxe, price: "179.50"},
	{number: "301", kind: booking.RoomTypeFamily, price: "209.00"},
	{number: "302", kind: booking.RoomTypeSuite, price: "349.99"},
}

// Up seeds the demo rooms. Numbers that already exist are left untouched, so
// running it on every start is safe.
func Up(ctx context.Context, l *logger.Logger, storage storage, idGen idGenerator) (err error) {
	ctx, err = storage.BeginTransaction(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if err = storage.RollbackTransaction(ctx); err != nil {
				l.LogErrorf("Could not rollback migration transaction after panic %v", p)
			}

			l.LogInfo("Migration transaction has been roll backed after panic")

			panic(p)
		}

		if err != nil {
			if rbErr := storage.RollbackTransaction(ctx); rbErr != nil {
				l.LogErrorf("Could not rollback migration transaction after error %v", rbErr.Error())
			}

			l.LogInfo("Migration transaction has been roll backed after error")

			return
		}

		if err = storage.CommitTransaction(ctx); err != nil {
			l.LogErrorf("Could not commit migration transaction, err %v", err.Error())

			return
		}

		l.LogInfo("Migration transaction has been committed")
	}()

	now := time.Now().UTC()
	seeded := 0

	for _, seed := range demoRooms {
		key := booking.NumberKey(seed.number)

		_, err = storage.GetRoomByNumberKey(ctx, key)
		if err == nil {
			continue
		}

		if !errors.Is(err, booking.ErrRecordNotFound) {
			return fmt.Errorf("get room %v from storage: %w", seed.number, err)
		}

		id, idErr := idGen.GetID(ctx)
		if idErr != nil {
			return fmt.Errorf("get id for room %v: %w", seed.number, idErr)
		}

		room := &booking.Room{
			ID:            id,
			Number:        seed.number,
			NumberKey:     key,
			Type:          seed.kind,
			Status:        booking.StatusAvailable,
			PricePerNight: decimal.RequireFromString(seed.price),
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err = storage.SaveRoom(ctx, room); err != nil {
			return fmt.Errorf("save room %v to storage: %w", seed.number, err)
		}

		seeded++
	}

	l.LogInfo("%d demo rooms seeded", seeded)

	return nil
}
