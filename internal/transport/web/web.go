package web

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/avstrong/hotelrooms/internal/booking"
	"github.com/avstrong/hotelrooms/internal/logger"
)

type Server struct {
	srv      *http.Server
	router   *mux.Router
	l        *logger.Logger
	conf     Conf
	bManager *booking.Manager
}

type Conf struct {
	L                 *logger.Logger
	ServerLogger      *log.Logger
	Host              string
	Port              string
	ReadHeaderTimeout time.Duration
	LivenessEndpoint  string
	// CORSOrigins enables cross-origin requests from the listed origins.
	CORSOrigins []string
}

func New(ctx context.Context, conf Conf, bookingManager *booking.Manager) (*Server, error) {
	router := mux.NewRouter()

	server := &Server{
		srv:      nil,
		router:   router,
		l:        conf.L,
		conf:     conf,
		bManager: bookingManager,
	}

	server.addRoutes(router)

	//nolint:exhaustruct
	server.srv = &http.Server{
		Addr:              net.JoinHostPort(conf.Host, conf.Port),
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
		ErrorLog:          conf.ServerLogger,
		Handler:           server.Handler(),
		BaseContext: func(listener net.Listener) context.Context {
			return ctx
		},
	}

	return server, nil
}

// Handler is the routed handler, wrapped in CORS when origins are configured.
func (s *Server) Handler() http.Handler {
	if len(s.conf.CORSOrigins) == 0 {
		return s.router
	}

	return handlers.CORS(
		handlers.AllowedOrigins(s.conf.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type", idempotencyKeyHeader, roleHeader}),
	)(s.router)
}

func (s *Server) Srv() *http.Server {
	return s.srv
}
