package web

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avstrong/hotelrooms/internal/booking"
)

const idempotencyKeyHeader = "Idempotency-Key"

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeFieldError(w, "body", "must be a valid JSON document")

		return false
	}

	return true
}

func (s *Server) parseStay(w http.ResponseWriter, checkIn, checkOut string) (booking.DateRange, bool) {
	in, err := booking.ParseDate(checkIn)
	if err != nil {
		s.writeFieldError(w, "checkIn", "must be a YYYY-MM-DD date")

		return booking.DateRange{}, false
	}

	out, err := booking.ParseDate(checkOut)
	if err != nil {
		s.writeFieldError(w, "checkOut", "must be a YYYY-MM-DD date")

		return booking.DateRange{}, false
	}

	return booking.DateRange{CheckIn: in, CheckOut: out}, true
}

func (s *Server) registerRoomHandler(w http.ResponseWriter, r *http.Request) {
	var input booking.RegisterRoomInput

	if !s.decode(w, r, &input) {
		return
	}

	room, err := s.bManager.RegisterRoom(r.Context(), input)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, toRoomResponse(room))
}

func (s *Server) listRoomsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	rooms, err := s.bManager.ListRooms(r.Context(), booking.RoomFilter{
		Type:   booking.RoomType(query.Get("type")),
		Status: booking.RoomStatus(query.Get("status")),
	})
	if err != nil {
		s.writeError(w, err)

		return
	}

	out := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomResponse(room))
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getRoomHandler(w http.ResponseWriter, r *http.Request) {
	room, err := s.bManager.GetRoom(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (s *Server) updateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var input booking.UpdateRoomInput

	if !s.decode(w, r, &input) {
		return
	}

	room, err := s.bManager.UpdateRoom(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (s *Server) deleteRoomHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.bManager.DeleteRoom(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) changeRoomStatusHandler(w http.ResponseWriter, r *http.Request) {
	var input statusRequest

	if !s.decode(w, r, &input) {
		return
	}

	room, err := s.bManager.ChangeRoomStatus(r.Context(), mux.Vars(r)["id"], booking.RoomStatus(input.Status))
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, toRoomResponse(room))
}

func (s *Server) availableRoomsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	stay, ok := s.parseStay(w, query.Get("checkIn"), query.Get("checkOut"))
	if !ok {
		return
	}

	rooms, err := s.bManager.FindAvailable(r.Context(), stay)
	if err != nil {
		s.writeError(w, err)

		return
	}

	out := make([]availableRoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, availableRoomResponse{
			ID:            room.ID,
			RoomNumber:    room.Number,
			Type:          string(room.Type),
			PricePerNight: room.PricePerNight.InexactFloat64(),
			IsAvailable:   room.IsAvailable,
		})
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) roomReservationsHandler(w http.ResponseWriter, r *http.Request) {
	reservations, err := s.bManager.ListRoomReservations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)

		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationResponse(reservation))
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) reserveHandler(w http.ResponseWriter, r *http.Request) {
	var input reserveRequest

	if !s.decode(w, r, &input) {
		return
	}

	stay, ok := s.parseStay(w, input.CheckIn, input.CheckOut)
	if !ok {
		return
	}

	ctx := r.Context()

	if key := r.Header.Get(idempotencyKeyHeader); key != "" {
		ctx = booking.NewContextWithIdempotencyKey(ctx, key)
	}

	reservation, err := s.bManager.Reserve(ctx, booking.ReserveInput{
		RoomID:    input.RoomID,
		GuestName: input.GuestName,
		Stay:      stay,
	})
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusCreated, toReservationResponse(reservation))
}

func (s *Server) getReservationHandler(w http.ResponseWriter, r *http.Request) {
	reservation, err := s.bManager.GetReservation(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}

func (s *Server) rescheduleHandler(w http.ResponseWriter, r *http.Request) {
	var input stayRequest

	if !s.decode(w, r, &input) {
		return
	}

	stay, ok := s.parseStay(w, input.CheckIn, input.CheckOut)
	if !ok {
		return
	}

	reservation, err := s.bManager.Reschedule(r.Context(), mux.Vars(r)["id"], stay)
	if err != nil {
		s.writeError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}

type stepFunc func(ctx context.Context, id string) (*booking.Reservation, error)

// reservationStepHandler serves the lifecycle moves (cancel, check-in, check-out).
func (s *Server) reservationStepHandler(step stepFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reservation, err := step(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			s.writeError(w, err)

			return
		}

		s.writeJSON(w, http.StatusOK, toReservationResponse(reservation))
	}
}

func (s *Server) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addRoutes(r *mux.Router) {
	r.Use(s.recoverMiddleware(), s.traceMiddleware(), s.loggerMiddleware())

	if s.conf.LivenessEndpoint != "" {
		r.HandleFunc(s.conf.LivenessEndpoint, s.livenessHandler).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.roleMiddleware())

	api.HandleFunc("/rooms", s.registerRoomHandler).Methods(http.MethodPost)
	api.HandleFunc("/rooms", s.listRoomsHandler).Methods(http.MethodGet)
	// Registered before /rooms/{id} so that "available" is not taken for an id.
	api.HandleFunc("/rooms/available", s.availableRoomsHandler).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", s.getRoomHandler).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", s.updateRoomHandler).Methods(http.MethodPatch)
	api.HandleFunc("/rooms/{id}", s.deleteRoomHandler).Methods(http.MethodDelete)
	api.HandleFunc("/rooms/{id}/status", s.changeRoomStatusHandler).Methods(http.MethodPatch)
	api.HandleFunc("/rooms/{id}/reservations", s.roomReservationsHandler).Methods(http.MethodGet)

	api.HandleFunc("/reservations", s.reserveHandler).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}", s.getReservationHandler).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{id}/dates", s.rescheduleHandler).Methods(http.MethodPatch)
	api.HandleFunc("/reservations/{id}/cancel", s.reservationStepHandler(s.bManager.CancelReservation)).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/check-in", s.reservationStepHandler(s.bManager.CheckIn)).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{id}/check-out", s.reservationStepHandler(s.bManager.CheckOut)).Methods(http.MethodPost)
}
