package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/avstrong/hotelrooms/internal/logger"
)

const (
	ModuleRooms        = "rooms"
	ModuleReservations = "reservations"

	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type idGenerator interface {
	GetID(ctx context.Context) (string, error)
}

type authorizer interface {
	Allowed(ctx context.Context, module, action string) (bool, error)
}

type storageReader interface {
	GetRoom(ctx context.Context, id string) (*Room, error)
	GetRoomByNumberKey(ctx context.Context, key string) (*Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]*Room, error)
	GetReservation(ctx context.Context, id string) (*Reservation, error)
	GetReservationByIdempotencyKey(ctx context.Context, key string) (*Reservation, error)
	ListReservationsByRoom(ctx context.Context, roomID string) ([]*Reservation, error)
	ListReservationsByStatus(ctx context.Context, statuses ...ReservationStatus) ([]*Reservation, error)
}

type storageWriter interface {
	BeginTransaction(ctx context.Context) (context.Context, error)
	// BeginRoomTransaction serializes with every other room transaction on the same room id.
	BeginRoomTransaction(ctx context.Context, roomID string) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	SaveRoom(ctx context.Context, room *Room) error
	UpdateRoom(ctx context.Context, room *Room) error
	DeleteRoom(ctx context.Context, id string) error
	SaveReservation(ctx context.Context, reservation *Reservation, idempotencyKey string) error
	UpdateReservation(ctx context.Context, reservation *Reservation) error
}

// Storage is the contract a store adapter fulfils. Writes are only valid
// inside a transaction begun on the same context.
type Storage interface {
	storageReader
	storageWriter
}

type Manager struct {
	l              *logger.Logger
	storage        Storage
	idGenerator    idGenerator
	authorizer     authorizer
	validate       *validator.Validate
	now            func() time.Time
	reserveTimeout time.Duration
}

type Option func(m *Manager)

// WithClock replaces the wall clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithReserveTimeout bounds the write path of reservation changes; a call that
// does not commit in time leaves no rows behind.
func WithReserveTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.reserveTimeout = timeout
	}
}

func New(l *logger.Logger, storage Storage, idGenerator idGenerator, authorizer authorizer, opts ...Option) *Manager {
	m := &Manager{
		l:              l,
		storage:        storage,
		idGenerator:    idGenerator,
		authorizer:     authorizer,
		validate:       newValidator(),
		now:            time.Now,
		reserveTimeout: 0,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0] //nolint:gomnd
		if name == "-" {
			return ""
		}

		return name
	})

	//nolint:errcheck // tags are static and valid
	_ = v.RegisterValidation("room_type", func(fl validator.FieldLevel) bool {
		return RoomType(fl.Field().String()).Valid()
	})

	//nolint:errcheck
	_ = v.RegisterValidation("room_status", func(fl validator.FieldLevel) bool {
		return RoomStatus(fl.Field().String()).Valid()
	})

	return v
}

func (m *Manager) today() time.Time {
	return ToDate(m.now())
}

func (m *Manager) authorize(ctx context.Context, module, action string) error {
	allowed, err := m.authorizer.Allowed(ctx, module, action)
	if err != nil {
		return fmt.Errorf("check %s:%s permission: %w", module, action, err)
	}

	if !allowed {
		return fmt.Errorf("%s:%s: %w", module, action, ErrForbidden)
	}

	return nil
}

// validateStruct runs the struct tags and collects failures into an InputError.
func (m *Manager) validateStruct(input any, inputErr *InputError) error {
	err := m.validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate input: %w", err)
	}

	for _, fieldErr := range fieldErrs {
		inputErr.addError(fieldErr.Field(), describeTag(fieldErr))
	}

	return nil
}

func describeTag(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "room_type":
		return fmt.Sprintf("must be one of %v", roomTypes)
	case "room_status":
		return fmt.Sprintf("must be one of %v", roomStatuses)
	}

	return "is invalid"
}

func checkPrice(inputErr *InputError, price *decimal.Decimal) {
	if price == nil {
		return
	}

	if price.IsNegative() {
		inputErr.addError("pricePerNight", "must not be negative")
	}

	if !price.Equal(price.Round(2)) { //nolint:gomnd
		inputErr.addError("pricePerNight", "must have at most two fractional digits")
	}
}

// checkStay validates a requested stay. A stay that keeps its original check-in
// date (e.g. extending a current stay) is allowed to start in the past.
func (m *Manager) checkStay(stay DateRange, keepsCheckIn bool) error {
	if !stay.CheckIn.Before(stay.CheckOut) {
		return ErrInvalidDateRange
	}

	if !keepsCheckIn && stay.CheckIn.Before(m.today()) {
		return ErrPastCheckIn
	}

	return nil
}

func (m *Manager) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.transaction(ctx, m.storage.BeginTransaction, fn)
}

// inRoomTransaction runs fn while holding the room's serialization point.
func (m *Manager) inRoomTransaction(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	return m.transaction(ctx, func(ctx context.Context) (context.Context, error) {
		return m.storage.BeginRoomTransaction(ctx, roomID)
	}, fn)
}

func (m *Manager) transaction(
	ctx context.Context,
	begin func(ctx context.Context) (context.Context, error),
	fn func(ctx context.Context) error,
) (err error) {
	ctx, err = begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := m.storage.RollbackTransaction(ctx); rbErr != nil {
				m.l.LogErrorf("Could not rollback transaction after panic %v: %v", p, rbErr.Error())
			}

			panic(p)
		}

		if err != nil {
			if rbErr := m.storage.RollbackTransaction(ctx); rbErr != nil {
				m.l.LogErrorf("Could not rollback transaction after error %v: %v", err.Error(), rbErr.Error())
			}

			return
		}

		if err = m.storage.CommitTransaction(ctx); err != nil {
			err = fmt.Errorf("commit transaction: %w", err)
		}
	}()

	return fn(ctx)
}

func (m *Manager) getRoom(ctx context.Context, id string) (*Room, error) {
	room, err := m.storage.GetRoom(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("room %s: %w", id, ErrRoomNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get room %s from storage: %w", id, err)
	}

	return room, nil
}

func (m *Manager) getReservation(ctx context.Context, id string) (*Reservation, error) {
	reservation, err := m.storage.GetReservation(ctx, id)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("reservation %s: %w", id, ErrReservationNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get reservation %s from storage: %w", id, err)
	}

	return reservation, nil
}

func (m *Manager) nextID(ctx context.Context) (string, error) {
	id, err := m.idGenerator.GetID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNextID, err.Error())
	}

	return id, nil
}
