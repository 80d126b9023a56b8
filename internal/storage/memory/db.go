package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/avstrong/hotelrooms/internal/booking"
	"github.com/avstrong/hotelrooms/internal/logger"
)

type Config struct {
	L *logger.Logger
}

// transaction stages writes until commit. A room transaction also holds the
// room's lock for its whole lifetime.
type transaction struct {
	id              string
	roomID          string
	release         func()
	rooms           map[string]*booking.Room
	deletedRooms    map[string]struct{}
	reservations    map[string]*booking.Reservation
	idempotencyKeys map[string]string
}

type DB struct {
	mu              sync.Mutex
	l               *logger.Logger
	rooms           map[string]*booking.Room
	reservations    map[string]*booking.Reservation
	idempotencyKeys map[string]string
	roomLocks       map[string]chan struct{}
	transactions    map[string]*transaction
	nextTrxID       int64
}

func New(conf Config) *DB {
	//nolint:exhaustruct
	return &DB{
		l:               conf.L,
		rooms:           make(map[string]*booking.Room),
		reservations:    make(map[string]*booking.Reservation),
		idempotencyKeys: make(map[string]string),
		roomLocks:       make(map[string]chan struct{}),
		transactions:    make(map[string]*transaction),
	}
}

func (db *DB) roomLock(roomID string) chan struct{} {
	db.mu.Lock()
	defer db.mu.Unlock()

	lock, ok := db.roomLocks[roomID]
	if !ok {
		lock = make(chan struct{}, 1)
		db.roomLocks[roomID] = lock
	}

	return lock
}

func (db *DB) BeginTransaction(ctx context.Context) (context.Context, error) {
	return db.begin(ctx, "", func() {}), nil
}

// BeginRoomTransaction waits for the room's lock, giving up when ctx is done.
// Rooms never share a lock.
func (db *DB) BeginRoomTransaction(ctx context.Context, roomID string) (context.Context, error) {
	lock := db.roomLock(roomID)

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return ctx, fmt.Errorf("acquire lock of room %s: %w", roomID, ctx.Err())
	}

	return db.begin(ctx, roomID, func() { <-lock }), nil
}

func (db *DB) begin(ctx context.Context, roomID string, release func()) context.Context {
	db.mu.Lock()
	defer db.mu.Unlock()

	trxID := fmt.Sprintf("trx-%d", db.nextTrxID)
	db.nextTrxID++

	db.transactions[trxID] = &transaction{
		id:              trxID,
		roomID:          roomID,
		release:         release,
		rooms:           make(map[string]*booking.Room),
		deletedRooms:    make(map[string]struct{}),
		reservations:    make(map[string]*booking.Reservation),
		idempotencyKeys: make(map[string]string),
	}

	return withTransactionID(ctx, trxID)
}

// transaction must be called with db.mu held.
func (db *DB) transaction(ctx context.Context) (*transaction, error) {
	trxID, ok := transactionIDFromContext(ctx)
	if !ok || trxID == "" {
		return nil, ErrTransactionIDNotFoundInCtx
	}

	trx, exists := db.transactions[trxID]
	if !exists {
		return nil, fmt.Errorf("transaction %s not found: %w", trxID, ErrTransactionNotFound)
	}

	return trx, nil
}

// activeTransaction returns nil when ctx carries no live transaction. Must be called with db.mu held.
func (db *DB) activeTransaction(ctx context.Context) *transaction {
	trx, err := db.transaction(ctx)
	if err != nil {
		return nil
	}

	return trx
}

func (db *DB) finish(trx *transaction) {
	delete(db.transactions, trx.id)
	trx.release()
}

func (db *DB) CommitTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	defer db.finish(trx)

	if err := ctx.Err(); err != nil {
		db.l.LogWarnf("Transaction %v abandoned before commit: %v", trx.id, err.Error())

		return fmt.Errorf("transaction %s abandoned: %w", trx.id, err)
	}

	if err := db.checkUnique(trx); err != nil {
		return err
	}

	for id, room := range trx.rooms {
		db.rooms[id] = room
	}

	for id := range trx.deletedRooms {
		delete(db.rooms, id)
		delete(db.roomLocks, id)
	}

	for id, reservation := range trx.reservations {
		db.reservations[id] = reservation
	}

	for key, id := range trx.idempotencyKeys {
		db.idempotencyKeys[key] = id
	}

	return nil
}

// checkUnique enforces the room number key and idempotency key constraints
// against committed state. Must be called with db.mu held.
func (db *DB) checkUnique(trx *transaction) error {
	for id, staged := range trx.rooms {
		for _, room := range db.roomsView(trx) {
			if room.ID != id && room.NumberKey == staged.NumberKey {
				return fmt.Errorf("room number key %q: %w", staged.NumberKey, booking.ErrDuplicateKey)
			}
		}
	}

	for key, id := range trx.idempotencyKeys {
		if existing, ok := db.idempotencyKeys[key]; ok && existing != id {
			return fmt.Errorf("idempotency key %q: %w", key, booking.ErrDuplicateKey)
		}
	}

	return nil
}

func (db *DB) RollbackTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	db.finish(trx)

	return nil
}

// roomsView merges committed rooms with the transaction's staged changes. Must be called with db.mu held.
func (db *DB) roomsView(trx *transaction) map[string]*booking.Room {
	view := make(map[string]*booking.Room, len(db.rooms))

	for id, room := range db.rooms {
		view[id] = room
	}

	if trx == nil {
		return view
	}

	for id, room := range trx.rooms {
		view[id] = room
	}

	for id := range trx.deletedRooms {
		delete(view, id)
	}

	return view
}

// reservationsView merges committed reservations with the transaction's staged changes. Must be called with db.mu held.
func (db *DB) reservationsView(trx *transaction) map[string]*booking.Reservation {
	view := make(map[string]*booking.Reservation, len(db.reservations))

	for id, reservation := range db.reservations {
		view[id] = reservation
	}

	if trx == nil {
		return view
	}

	for id, reservation := range trx.reservations {
		view[id] = reservation
	}

	return view
}

func (db *DB) GetRoom(ctx context.Context, id string) (*booking.Room, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	room, ok := db.roomsView(db.activeTransaction(ctx))[id]
	if !ok {
		return nil, booking.ErrRecordNotFound
	}

	return cloneRoom(room), nil
}

func (db *DB) GetRoomByNumberKey(ctx context.Context, key string) (*booking.Room, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, room := range db.roomsView(db.activeTransaction(ctx)) {
		if room.NumberKey == key {
			return cloneRoom(room), nil
		}
	}

	return nil, booking.ErrRecordNotFound
}

func (db *DB) ListRooms(ctx context.Context, filter booking.RoomFilter) ([]*booking.Room, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []*booking.Room

	for _, room := range db.roomsView(db.activeTransaction(ctx)) {
		if filter.Match(room) {
			result = append(result, cloneRoom(room))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].NumberKey < result[j].NumberKey
	})

	return result, nil
}

func (db *DB) GetReservation(ctx context.Context, id string) (*booking.Reservation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	reservation, ok := db.reservationsView(db.activeTransaction(ctx))[id]
	if !ok {
		return nil, booking.ErrRecordNotFound
	}

	return cloneReservation(reservation), nil
}

func (db *DB) GetReservationByIdempotencyKey(ctx context.Context, key string) (*booking.Reservation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx := db.activeTransaction(ctx)

	id, ok := db.idempotencyKeys[key]
	if trx != nil {
		if staged, stagedOK := trx.idempotencyKeys[key]; stagedOK {
			id, ok = staged, true
		}
	}

	if !ok {
		return nil, booking.ErrRecordNotFound
	}

	reservation, ok := db.reservationsView(trx)[id]
	if !ok {
		return nil, booking.ErrRecordNotFound
	}

	return cloneReservation(reservation), nil
}

func (db *DB) ListReservationsByRoom(ctx context.Context, roomID string) ([]*booking.Reservation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []*booking.Reservation

	for _, reservation := range db.reservationsView(db.activeTransaction(ctx)) {
		if reservation.RoomID == roomID {
			result = append(result, cloneReservation(reservation))
		}
	}

	sortByCheckIn(result)

	return result, nil
}

func (db *DB) ListReservationsByStatus(
	ctx context.Context,
	statuses ...booking.ReservationStatus,
) ([]*booking.Reservation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	wanted := make(map[booking.ReservationStatus]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}

	var result []*booking.Reservation

	for _, reservation := range db.reservationsView(db.activeTransaction(ctx)) {
		if _, ok := wanted[reservation.Status]; ok {
			result = append(result, cloneReservation(reservation))
		}
	}

	sortByCheckIn(result)

	return result, nil
}

func (db *DB) SaveRoom(ctx context.Context, room *booking.Room) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != "" && trx.roomID != room.ID {
		return fmt.Errorf("room %s in transaction of room %s: %w", room.ID, trx.roomID, ErrForeignRoom)
	}

	trx.rooms[room.ID] = cloneRoom(room)
	delete(trx.deletedRooms, room.ID)

	return nil
}

func (db *DB) UpdateRoom(ctx context.Context, room *booking.Room) error {
	db.mu.Lock()
	exists := false

	if trx := db.activeTransaction(ctx); trx != nil {
		_, exists = db.roomsView(trx)[room.ID]
	}
	db.mu.Unlock()

	if !exists {
		return booking.ErrRecordNotFound
	}

	return db.SaveRoom(ctx, room)
}

func (db *DB) DeleteRoom(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != id {
		return fmt.Errorf("delete room %s in transaction of room %s: %w", id, trx.roomID, ErrForeignRoom)
	}

	delete(trx.rooms, id)
	trx.deletedRooms[id] = struct{}{}

	return nil
}

func (db *DB) SaveReservation(ctx context.Context, reservation *booking.Reservation, idempotencyKey string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != reservation.RoomID {
		return fmt.Errorf("reservation of room %s in transaction of room %s: %w", reservation.RoomID, trx.roomID, ErrForeignRoom)
	}

	trx.reservations[reservation.ID] = cloneReservation(reservation)

	if idempotencyKey != "" {
		trx.idempotencyKeys[idempotencyKey] = reservation.ID
	}

	return nil
}

func (db *DB) UpdateReservation(ctx context.Context, reservation *booking.Reservation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transaction(ctx)
	if err != nil {
		return err
	}

	if trx.roomID != reservation.RoomID {
		return fmt.Errorf("reservation of room %s in transaction of room %s: %w", reservation.RoomID, trx.roomID, ErrForeignRoom)
	}

	if _, ok := db.reservationsView(trx)[reservation.ID]; !ok {
		return booking.ErrRecordNotFound
	}

	trx.reservations[reservation.ID] = cloneReservation(reservation)

	return nil
}

func cloneRoom(room *booking.Room) *booking.Room {
	c := *room

	return &c
}

func cloneReservation(reservation *booking.Reservation) *booking.Reservation {
	c := *reservation

	return &c
}

func sortByCheckIn(reservations []*booking.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].CheckIn.Equal(reservations[j].CheckIn) {
			return reservations[i].CheckIn.Before(reservations[j].CheckIn)
		}

		return reservations[i].ID < reservations[j].ID
	})
}
