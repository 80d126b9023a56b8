package gormdb

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avstrong/hotelrooms/internal/booking"
	"github.com/avstrong/hotelrooms/internal/logger"
)

var (
	ErrTransactionNotFoundInCtx = errors.New("no transaction found in ctx")
	ErrForeignRoom              = errors.New("write outside the transaction's room")
)

type txKey struct{}

type transaction struct {
	db     *gorm.DB
	roomID string
}

// Store keeps rooms and reservations in a relational database. Room
// transactions lock the room row with SELECT ... FOR UPDATE, which is the
// per-room serialization point for reservation writes.
type Store struct {
	db *gorm.DB
	l  *logger.Logger
}

// OpenPostgres connects to PostgreSQL and migrates the schema.
func OpenPostgres(dsn string, l *logger.Logger) (*Store, error) {
	return Open(postgres.Open(dsn), l)
}

func Open(dialector gorm.Dialector, l *logger.Logger) (*Store, error) {
	//nolint:exhaustruct
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&roomRow{}, &reservationRow{}); err != nil { //nolint:exhaustruct
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, l: l}, nil
}

// DB exposes the underlying handle, e.g. to tune the connection pool.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}

	return sqlDB.Close() //nolint:wrapcheck
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if trx, ok := ctx.Value(txKey{}).(*transaction); ok {
		return trx.db
	}

	return s.db.WithContext(ctx)
}

func (s *Store) transaction(ctx context.Context) (*transaction, error) {
	trx, ok := ctx.Value(txKey{}).(*transaction)
	if !ok {
		return nil, ErrTransactionNotFoundInCtx
	}

	return trx, nil
}

func (s *Store) BeginTransaction(ctx context.Context) (context.Context, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, fmt.Errorf("begin: %w", tx.Error)
	}

	return context.WithValue(ctx, txKey{}, &transaction{db: tx, roomID: ""}), nil
}

func (s *Store) BeginRoomTransaction(ctx context.Context, roomID string) (context.Context, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, fmt.Errorf("begin: %w", tx.Error)
	}

	var row roomRow

	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", roomID).
		Take(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()

		return ctx, fmt.Errorf("lock room %s: %w", roomID, err)
	}

	s.l.LogDebugf("Room %v locked", roomID)

	return context.WithValue(ctx, txKey{}, &transaction{db: tx, roomID: roomID}), nil
}

func (s *Store) CommitTransaction(ctx context.Context) error {
	trx, err := s.transaction(ctx)
	if err != nil {
		return err
	}

	if err := trx.db.Commit().Error; err != nil {
		return translate(err)
	}

	return nil
}

func (s *Store) RollbackTransaction(ctx context.Context) error {
	trx, err := s.transaction(ctx)
	if err != nil {
		return err
	}

	if err := trx.db.Rollback().Error; err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return booking.ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", booking.ErrDuplicateKey, err.Error())
	}

	return err
}

func (s *Store) GetRoom(ctx context.Context, id string) (*booking.Room, error) {
	var row roomRow

	if err := s.conn(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}

	return row.toRoom(), nil
}

func (s *Store) GetRoomByNumberKey(ctx context.Context, key string) (*booking.Room, error) {
	var row roomRow

	if err := s.conn(ctx).Where("number_key = ?", key).Take(&row).Error; err != nil {
		return nil, translate(err)
	}

	return row.toRoom(), nil
}

func (s *Store) ListRooms(ctx context.Context, filter booking.RoomFilter) ([]*booking.Room, error) {
	query := s.conn(ctx).Order("number_key ASC")

	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}

	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var rows []roomRow

	if err := query.Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	rooms := make([]*booking.Room, 0, len(rows))
	for i := range rows {
		rooms = append(rooms, rows[i].toRoom())
	}

	return rooms, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (*booking.Reservation, error) {
	var row reservationRow

	if err := s.conn(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}

	return row.toReservation(), nil
}

func (s *Store) GetReservationByIdempotencyKey(ctx context.Context, key string) (*booking.Reservation, error) {
	var row reservationRow

	if err := s.conn(ctx).Where("idempotency_key = ?", key).Take(&row).Error; err != nil {
		return nil, translate(err)
	}

	return row.toReservation(), nil
}

func (s *Store) ListReservationsByRoom(ctx context.Context, roomID string) ([]*booking.Reservation, error) {
	var rows []reservationRow

	err := s.conn(ctx).
		Where("room_id = ?", roomID).
		Order("check_in ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	return toReservations(rows), nil
}

func (s *Store) ListReservationsByStatus(
	ctx context.Context,
	statuses ...booking.ReservationStatus,
) ([]*booking.Reservation, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	var rows []reservationRow

	err := s.conn(ctx).
		Where("status IN ?", values).
		Order("check_in ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	return toReservations(rows), nil
}

func (s *Store) SaveRoom(ctx context.Context, room *booking.Room) error {
	trx, err := s.transaction(ctx)
	if err != nil {
		return err
	}

	row := fromRoom(room)

	return translate(trx.db.Create(&row).Error)
}

func (s *Store) UpdateRoom(ctx context.Context, room *booking.Room) error {
	trx, err := s.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != room.ID {
		return fmt.Errorf("room %s in transaction of room %s: %w", room.ID, trx.roomID, ErrForeignRoom)
	}

	row := fromRoom(room)

	result := trx.db.Model(&roomRow{}).Where("id = ?", room.ID).Updates(map[string]any{ //nolint:exhaustruct
		"number":          row.Number,
		"number_key":      row.NumberKey,
		"type":            row.Type,
		"status":          row.Status,
		"price_per_night": row.PricePerNight,
		"updated_at":      row.UpdatedAt,
	})
	if result.Error != nil {
		return translate(result.Error)
	}

	if result.RowsAffected == 0 {
		return booking.ErrRecordNotFound
	}

	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	trx, err := s.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != id {
		return fmt.Errorf("delete room %s in transaction of room %s: %w", id, trx.roomID, ErrForeignRoom)
	}

	return translate(trx.db.Where("id = ?", id).Delete(&roomRow{}).Error) //nolint:exhaustruct
}

func (s *Store) SaveReservation(ctx context.Context, reservation *booking.Reservation, idempotencyKey string) error {
	trx, err := s.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != reservation.RoomID {
		return fmt.Errorf("reservation of room %s in transaction of room %s: %w", reservation.RoomID, trx.roomID, ErrForeignRoom)
	}

	row := fromReservation(reservation, idempotencyKey)

	return translate(trx.db.Create(&row).Error)
}

func (s *Store) UpdateReservation(ctx context.Context, reservation *booking.Reservation) error {
	trx, err := s.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != reservation.RoomID {
		return fmt.Errorf("reservation of room %s in transaction of room %s: %w", reservation.RoomID, trx.roomID, ErrForeignRoom)
	}

	result := trx.db.Model(&reservationRow{}).Where("id = ?", reservation.ID).Updates(map[string]any{ //nolint:exhaustruct
		"check_in":   datatypes.Date(reservation.CheckIn),
		"check_out":  datatypes.Date(reservation.CheckOut),
		"status":     string(reservation.Status),
		"guest_name": reservation.GuestName,
		"updated_at": reservation.UpdatedAt,
	})
	if result.Error != nil {
		return translate(result.Error)
	}

	if result.RowsAffected == 0 {
		return booking.ErrRecordNotFound
	}

	return nil
}
