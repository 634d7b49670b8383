package eventloop

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/logger"
)

const inputRetryDelay = 100 * time.Millisecond

// Handler does the work the loop dispatches. All calls happen on the
// goroutine running Loop.Run.
type Handler interface {
	Tick()
	Input(b byte)
	Shutdown()
}

type Options struct {
	// Period of the timer tick
	Period time.Duration
	// Ticks replaces the internal ticker when set
	Ticks <-chan time.Time
	// Input is read one byte at a time. Nil disables key input.
	Input   io.Reader
	Signals []os.Signal
	Logger  logger.Logger
}

// Loop waits on three flags and dispatches them by priority: exit, then
// tick, then input. Event sources only raise a flag and wake the loop.
type Loop struct {
	opts Options
	log  logger.Logger

	exit  atomic.Bool
	tick  atomic.Bool
	input atomic.Bool

	wake chan struct{}
	arm  chan struct{}

	// written by the reader before input is raised, read by the loop after
	pending byte
}

func New(opts Options) (*Loop, error) {
	if opts.Ticks == nil && opts.Period <= 0 {
		return nil, errors.New().WithData(errors.ErrInvalidInterval, opts.Period.String())
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Loop{
		opts: opts,
		log:  opts.Logger,
		wake: make(chan struct{}, 1),
		arm:  make(chan struct{}, 1),
	}, nil
}

// RequestExit asks the loop to shut down. It is safe to call from any
// goroutine and the request is never withdrawn.
func (l *Loop) RequestExit() {
	l.raise(&l.exit)
}

func (l *Loop) raise(flag *atomic.Bool) {
	flag.Store(true)
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run dispatches events to h until an exit is requested or ctx is done.
// h.Shutdown is called exactly once before Run returns.
func (l *Loop) Run(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.startSources(ctx)

	for {
		switch {
		case l.exit.Load():
			l.log.Info().Msg("Exit requested, shutting down")
			h.Shutdown()
			return nil

		case l.tick.CompareAndSwap(true, false):
			h.Tick()

		case l.input.CompareAndSwap(true, false):
			h.Input(l.pending)
			l.rearm()

		default:
			<-l.wake
		}
	}
}

func (l *Loop) startSources(ctx context.Context) {
	go func() {
		<-ctx.Done()
		l.RequestExit()
	}()

	ticks := l.opts.Ticks
	if ticks == nil {
		ticker := time.NewTicker(l.opts.Period)
		go func() {
			<-ctx.Done()
			ticker.Stop()
		}()
		ticks = ticker.C
	}
	go l.forwardTicks(ctx, ticks)

	if len(l.opts.Signals) > 0 {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, l.opts.Signals...)
		go l.watchSignals(ctx, sigs)
	}

	if l.opts.Input != nil {
		go l.readInput(ctx, l.opts.Input)
	}
}

func (l *Loop) forwardTicks(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ticks:
			if !ok {
				return
			}
			l.raise(&l.tick)
		}
	}
}

func (l *Loop) watchSignals(ctx context.Context, sigs chan os.Signal) {
	defer signal.Stop(sigs)

	select {
	case <-ctx.Done():
	case sig := <-sigs:
		l.log.Info().Str("signal", sig.String()).Msg("Received termination signal")
		l.RequestExit()
	}
}

// readInput performs one single-byte read at a time. After a byte is
// delivered the next read waits until the loop has consumed it.
func (l *Loop) readInput(ctx context.Context, r io.Reader) {
	buf := make([]byte, 1)

	for {
		n, err := r.Read(buf)
		if n == 1 {
			l.pending = buf[0]
			l.raise(&l.input)

			select {
			case <-ctx.Done():
				return
			case <-l.arm:
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, os.ErrClosed):
			l.log.Info().Msg("Input closed, key handling stopped")
			return
		default:
			if ctx.Err() != nil {
				return
			}
			l.log.Warn().Err(err).Msg("Input read failed")
			time.Sleep(inputRetryDelay)
		}
	}
}

func (l *Loop) rearm() {
	select {
	case l.arm <- struct{}{}:
	default:
	}
}
