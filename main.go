package main

import (
	"fmt"
	"os"

	"github.com/avstrong/hotelrooms/internal/app"
	"github.com/avstrong/hotelrooms/internal/config"
	"github.com/avstrong/hotelrooms/internal/logger"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lr, closeLog, err := logger.Build(logger.Conf{
		Level:  conf.Log.Level,
		Format: conf.Log.Format,
		File:   conf.Log.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(lr)

	var exitCode int

	if err := app.Run(l, conf); err != nil {
		l.LogErrorf("Failed to run app: %v", err.Error())

		exitCode = 1
	}

	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close log file: %v\n", err)
	}

	os.Exit(exitCode)
}
