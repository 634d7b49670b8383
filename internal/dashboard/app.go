package dashboard

import (
	"context"
	"time"

	"codeberg.org/mutker/roverdash/internal/acquisition"
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/eventloop"
	"codeberg.org/mutker/roverdash/internal/logger"
	"codeberg.org/mutker/roverdash/internal/metrics"
	"codeberg.org/mutker/roverdash/internal/telemetry"
	"codeberg.org/mutker/roverdash/internal/ui"
)

const sinkTimeout = time.Second

type Options struct {
	Device    string
	Mode      acquisition.ModeContext
	Units     ui.Units
	Recorder  metrics.Recorder
	Publisher telemetry.Publisher
	Logger    logger.Logger
	// Clock defaults to time.Now
	Clock func() time.Time
}

// App connects acquisition and the UI to the event loop. It implements
// eventloop.Handler, so every method runs on the loop goroutine.
type App struct {
	driver    ecu.Driver
	acq       *acquisition.Acquirer
	renderer  ui.Renderer
	ctrl      *ui.Controller
	recorder  metrics.Recorder
	publisher telemetry.Publisher
	logger    logger.Logger

	device string
	mode   acquisition.ModeContext
	snap   *ecu.Snapshot
	clock  func() time.Time
	start  time.Time
	ctx    context.Context

	requestExit func()
	lastResult  acquisition.Result
}

func New(driver ecu.Driver, acq *acquisition.Acquirer, renderer ui.Renderer, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Recorder == nil {
		opts.Recorder, _ = metrics.NewService(metrics.Config{}, opts.Logger)
	}
	if opts.Publisher == nil {
		opts.Publisher, _ = telemetry.NewService(context.Background(), telemetry.Config{}, opts.Logger)
	}

	return &App{
		driver:      driver,
		acq:         acq,
		renderer:    renderer,
		ctrl:        ui.NewController(renderer, driver, opts.Units, opts.Logger),
		recorder:    opts.Recorder,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		device:      opts.Device,
		mode:        opts.Mode,
		snap:        ecu.NewSnapshot(),
		clock:       opts.Clock,
		start:       opts.Clock(),
		ctx:         context.Background(),
		requestExit: func() {},
	}
}

// Run draws the layout and dispatches events until shutdown
func (a *App) Run(ctx context.Context, loopOpts eventloop.Options) error {
	if loopOpts.Logger == nil {
		loopOpts.Logger = a.logger
	}
	loop, err := eventloop.New(loopOpts)
	if err != nil {
		return err
	}

	a.ctx = ctx
	a.requestExit = loop.RequestExit
	a.ctrl.Start()

	return loop.Run(ctx, a)
}

func (a *App) Snapshot() *ecu.Snapshot {
	return a.snap
}

func (a *App) Controller() *ui.Controller {
	return a.ctrl
}

// Tick runs one acquisition cycle and pushes the result to the screen and
// the configured sinks
func (a *App) Tick() {
	now := a.clock()

	if !a.driver.Connected() && !a.reconnect() {
		a.renderer.ShowStatus(false, false)
		return
	}

	result := a.acq.RunCycle(a.snap, a.mode, now.Sub(a.start).Milliseconds())
	if result != a.lastResult {
		a.logger.Debug().
			Str("from", a.lastResult.String()).
			Str("to", result.String()).
			Msg("Read status changed")
		a.lastResult = result
	}

	a.ctrl.Refresh(a.snap, result != acquisition.Failure)

	ctx, cancel := context.WithTimeout(a.ctx, sinkTimeout)
	defer cancel()

	if err := a.recorder.Record(ctx, metrics.NewSample(now, a.snap, result)); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record cycle")
	}

	update := &telemetry.Update{Timestamp: now, Result: result, Snapshot: a.snap}
	if err := a.publisher.Publish(ctx, update); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to publish snapshot")
	}
}

func (a *App) reconnect() bool {
	if err := a.driver.Connect(a.device); err != nil {
		a.logger.Debug().Err(err).Str("device", a.device).Msg("Reconnect failed")
		return false
	}

	a.snap = ecu.NewSnapshot()
	a.acq.Reconnected()
	a.logger.Info().Str("device", a.device).Msg("Reconnected to ECU")

	return true
}

// Input handles one key byte
func (a *App) Input(b byte) {
	if b == ui.KeyCtrlC {
		a.logger.Info().Msg("Interrupt key pressed")
		a.requestExit()
		return
	}
	a.ctrl.HandleKey(b)
}

// Shutdown restores the console and closes the sinks
func (a *App) Shutdown() {
	if err := a.renderer.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to restore console")
	}
	if err := a.recorder.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close cycle recorder")
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close snapshot publisher")
	}
	a.logger.Info().Msg("Dashboard stopped")
}
