package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avstrong/hotelrooms/internal/booking"
)

var ErrPanic = errors.New("panic in http handler")

type errorResponse struct {
	Kind      string              `json:"kind"`
	Message   string              `json:"message"`
	Fields    map[string][]string `json:"fields,omitempty"`
	Conflicts []string            `json:"conflicts,omitempty"`
}

func statusOf(kind booking.Kind) int {
	switch kind {
	case booking.KindValidation:
		return http.StatusBadRequest
	case booking.KindForbidden:
		return http.StatusForbidden
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindConflict, booking.KindStateConflict, booking.KindConstraint:
		return http.StatusConflict
	case booking.KindInternal:
		return http.StatusInternalServerError
	}

	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	kind := booking.KindOf(err)

	//nolint:exhaustruct
	body := errorResponse{
		Kind:    kind.String(),
		Message: booking.MessageOf(err),
	}

	if inputErr := booking.IsInputError(err); inputErr != nil {
		body.Fields = inputErr.Fields()
	}

	if availabilityErr := booking.IsAvailabilityError(err); availabilityErr != nil {
		body.Conflicts = availabilityErr.Conflicts()
	}

	switch kind {
	case booking.KindInternal:
		s.l.LogErrorf("Request failed: %v", err.Error())
	default:
		s.l.LogDebugf("Request rejected: %v", err.Error())
	}

	s.writeJSON(w, statusOf(kind), body)
}

// writeFieldError reports a request that could not be decoded into an input.
func (s *Server) writeFieldError(w http.ResponseWriter, field, msg string) {
	s.writeJSON(w, http.StatusBadRequest, errorResponse{
		Kind:      booking.KindValidation.String(),
		Message:   "invalid input",
		Fields:    map[string][]string{field: {msg}},
		Conflicts: nil,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.l.LogErrorf("Could not encode response: %v", err.Error())
	}
}
