package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"codeberg.org/mutker/roverdash/internal/acquisition"
	"codeberg.org/mutker/roverdash/internal/config"
	"codeberg.org/mutker/roverdash/internal/dashboard"
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/eventloop"
	"codeberg.org/mutker/roverdash/internal/logger"
	"codeberg.org/mutker/roverdash/internal/metrics"
	"codeberg.org/mutker/roverdash/internal/pid"
	"codeberg.org/mutker/roverdash/internal/telemetry"
	"codeberg.org/mutker/roverdash/internal/ui"
)

const (
	exitOK      = 0
	exitFailure = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		switch {
		case errors.HasCode(err, config.ErrHelpRequested):
			fmt.Fprintln(stdout, config.Usage())
			return exitOK
		case errors.HasCode(err, errors.ErrUsage):
			fmt.Fprintln(stderr, config.Usage())
		default:
			fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		}
		return exitFailure
	}

	logFile, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open log file: %v\n", err)
		return exitFailure
	}
	defer logFile.Close()

	if err := logger.Init(cfg.LogLevel, logFile); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitFailure
	}
	log := logger.Default()
	log.Debug().Str("device", cfg.Device).Msg("Config loaded")

	if err := pid.Write(cfg.Device); err != nil {
		log.Error().Err(err).Msg("Failed to lock device")
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	defer func() {
		if err := pid.Remove(cfg.Device); err != nil {
			log.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	driver, err := ecu.New(cfg.Driver, cfg.DriverOptions())
	if err != nil {
		log.Error().Err(err).Msg("Failed to create driver")
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	if err := driver.Connect(cfg.Device); err != nil {
		log.Error().Err(err).Str("device", cfg.Device).Msg("Failed to connect")
		fmt.Fprintf(stderr, "%s.\n", errors.GetErrorMessage(errors.ErrConnect))
		return exitFailure
	}
	log.Info().Str("device", cfg.Device).Str("driver", cfg.Driver).Msg("Connected to ECU")
	defer func() {
		if err := driver.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder, err := metrics.NewService(cfg.MetricsConfig(), log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize cycle recorder")
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	publisher, err := telemetry.NewService(ctx, cfg.TelemetryConfig(), log)
	if err != nil {
		recorder.Close()
		log.Error().Err(err).Msg("Failed to initialize snapshot publisher")
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	con, err := openConsole()
	if err != nil {
		recorder.Close()
		publisher.Close()
		log.Error().Err(err).Msg("Failed to set up console")
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}

	units := ui.Imperial
	if cfg.Metric {
		units = ui.Metric
	}

	renderer := ui.NewTerminal(stdout, ui.TerminalOptions{Width: con.width, RawMode: con.raw})
	acq := acquisition.NewAcquirer(driver, cfg.Catalog(), cfg.ReadOptions(), log)
	app := dashboard.New(driver, acq, renderer, dashboard.Options{
		Device:    cfg.Device,
		Mode:      cfg.ModeContext(),
		Units:     units,
		Recorder:  recorder,
		Publisher: publisher,
		Logger:    log,
	})

	runErr := app.Run(ctx, eventloop.Options{
		Period:  cfg.Refresh(),
		Input:   os.Stdin,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Logger:  log,
	})

	if err := con.restore(); err != nil {
		log.Warn().Err(err).Msg("Failed to restore console mode")
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("Error in main loop")
		fmt.Fprintf(stderr, "%v\n", runErr)
		return exitFailure
	}

	fmt.Fprintln(stdout, "roverdash - goodbye.")
	return exitOK
}
