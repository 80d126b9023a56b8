package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/avstrong/hotelrooms/internal/auth"
	"github.com/avstrong/hotelrooms/internal/booking"
	"github.com/avstrong/hotelrooms/internal/config"
	"github.com/avstrong/hotelrooms/internal/idgen/uuidgen"
	"github.com/avstrong/hotelrooms/internal/logger"
	"github.com/avstrong/hotelrooms/internal/migration"
	"github.com/avstrong/hotelrooms/internal/storage/gormdb"
	"github.com/avstrong/hotelrooms/internal/storage/memory"
	"github.com/avstrong/hotelrooms/internal/transport/web"
)

// openStorage returns the configured store and a function releasing it.
func openStorage(l *logger.Logger, conf config.Storage) (booking.Storage, func() error, error) {
	switch conf.Driver {
	case config.StoragePostgres:
		store, err := gormdb.OpenPostgres(conf.DSN, l.WithField("storage", conf.Driver))
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres storage: %w", err)
		}

		return store, store.Close, nil
	case config.StorageMemory:
		return memory.New(memory.Config{L: l.WithField("storage", conf.Driver)}), func() error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("storage %q: %w", conf.Driver, config.ErrInvalid)
}

func Run(l *logger.Logger, conf config.Config) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	defer cancel()

	storage, closeStorage, err := openStorage(l, conf.Storage)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeStorage(); err != nil {
			l.LogErrorf("Failed to close storage: %v", err.Error())
		}
	}()

	otel.SetTextMapPropagator(propagation.TraceContext{})

	idGen := uuidgen.New()

	if conf.SeedRooms {
		if err := migration.Up(ctx, l, storage, idGen); err != nil {
			return fmt.Errorf("up demo rooms migration: %w", err)
		}

		l.LogInfo("Demo rooms migration has been applied")
	}

	enforcer, err := auth.New(auth.DefaultPermissions())
	if err != nil {
		return fmt.Errorf("init authorizer: %w", err)
	}

	bookManager := booking.New(l, storage, idGen, enforcer, booking.WithReserveTimeout(conf.ReserveTimeout))

	webConf := web.Conf{
		L:                 l,
		ServerLogger:      l.StdLogger(),
		Host:              conf.HTTP.Host,
		Port:              conf.HTTP.Port,
		ReadHeaderTimeout: conf.HTTP.ReadHeaderTimeout,
		LivenessEndpoint:  conf.HTTP.LivenessEndpoint,
		CORSOrigins:       conf.HTTP.CORSOrigins,
	}

	srv, err := web.New(ctx, webConf, bookManager)
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	//nolint:contextcheck
	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), conf.HTTP.ShutdownTimeout)
		defer cancel()

		if err := srv.Srv().Shutdown(ctx); err != nil {
			l.LogErrorf("Failed to stop http server: %v", err.Error())
		}
	}()

	l.LogInfo("Application is running on %v:%v with %v storage...", webConf.Host, webConf.Port, conf.Storage.Driver)

	if err := srv.Srv().ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		l.LogErrorf("Failed to run http server: %v", err.Error())

		cancel()

		return fmt.Errorf("serve http: %w", err)
	}

	l.LogInfo("Application stopped gracefully")

	return nil
}
