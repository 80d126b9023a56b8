package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type HTTP struct {
	Host              string
	Port              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	LivenessEndpoint  string
	CORSOrigins       []string
}

type Storage struct {
	Driver string
	DSN    string
}

type Log struct {
	Level  string
	Format string
	File   string
}

type Config struct {
	HTTP           HTTP
	Storage        Storage
	Log            Log
	SeedRooms      bool
	ReserveTimeout time.Duration
}

func defaults() Config {
	return Config{
		HTTP: HTTP{
			Host:              "localhost",
			Port:              "8092",
			ReadHeaderTimeout: 20 * time.Second, //nolint:gomnd
			ShutdownTimeout:   4 * time.Second,  //nolint:gomnd
			LivenessEndpoint:  "/liveness",
			CORSOrigins:       nil,
		},
		Storage: Storage{
			Driver: StorageMemory,
			DSN:    "",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		SeedRooms:      false,
		ReserveTimeout: 5 * time.Second, //nolint:gomnd
	}
}

// Load reads the optional dotenv files (".env" when none are given) and then
// the process environment. Variables already set in the environment win.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	return FromEnv(os.LookupEnv)
}

//nolint:cyclop // it's a flat list of variables
func FromEnv(lookup func(key string) (string, bool)) (Config, error) {
	conf := defaults()
	r := reader{lookup: lookup}

	r.str("HOTEL_HTTP_HOST", &conf.HTTP.Host)
	r.str("HOTEL_HTTP_PORT", &conf.HTTP.Port)
	r.duration("HOTEL_READ_HEADER_TIMEOUT", &conf.HTTP.ReadHeaderTimeout)
	r.duration("HOTEL_SHUTDOWN_TIMEOUT", &conf.HTTP.ShutdownTimeout)
	r.str("HOTEL_LIVENESS_ENDPOINT", &conf.HTTP.LivenessEndpoint)
	r.list("HOTEL_CORS_ORIGINS", &conf.HTTP.CORSOrigins)
	r.str("HOTEL_STORAGE", &conf.Storage.Driver)
	r.str("HOTEL_DATABASE_DSN", &conf.Storage.DSN)
	r.str("HOTEL_LOG_LEVEL", &conf.Log.Level)
	r.str("HOTEL_LOG_FORMAT", &conf.Log.Format)
	r.str("HOTEL_LOG_FILE", &conf.Log.File)
	r.boolean("HOTEL_SEED_ROOMS", &conf.SeedRooms)
	r.duration("HOTEL_RESERVE_TIMEOUT", &conf.ReserveTimeout)

	if r.err != nil {
		return Config{}, r.err
	}

	switch conf.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if conf.Storage.DSN == "" {
			return Config{}, fmt.Errorf("HOTEL_DATABASE_DSN is required for storage %q: %w", conf.Storage.Driver, ErrInvalid)
		}
	default:
		return Config{}, fmt.Errorf("HOTEL_STORAGE %q: %w", conf.Storage.Driver, ErrInvalid)
	}

	if conf.HTTP.Port == "" {
		return Config{}, fmt.Errorf("HOTEL_HTTP_PORT is empty: %w", ErrInvalid)
	}

	return conf, nil
}

var ErrInvalid = errors.New("invalid configuration")

// reader keeps the first parse error so every variable can be read in a row.
type reader struct {
	lookup func(key string) (string, bool)
	err    error
}

func (r *reader) value(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}

	v, ok := r.lookup(key)
	if !ok {
		return "", false
	}

	return strings.TrimSpace(v), true
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.value(key); ok {
		*dst = v
	}
}

func (r *reader) list(key string, dst *[]string) {
	v, ok := r.value(key)
	if !ok || v == "" {
		return
	}

	var items []string

	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	*dst = items
}

func (r *reader) duration(key string, dst *time.Duration) {
	v, ok := r.value(key)
	if !ok || v == "" {
		return
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = fmt.Errorf("%s: %w: %v", key, ErrInvalid, err.Error())

		return
	}

	*dst = d
}

func (r *reader) boolean(key string, dst *bool) {
	v, ok := r.value(key)
	if !ok || v == "" {
		return
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		r.err = fmt.Errorf("%s: %w: %v", key, ErrInvalid, err.Error())

		return
	}

	*dst = b
}
