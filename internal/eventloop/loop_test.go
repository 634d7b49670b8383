package eventloop

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/roverdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []string

	onTick  func(n int)
	onInput func(b byte)
	ticks   int
}

func (h *recordingHandler) Tick() {
	h.mu.Lock()
	h.ticks++
	n := h.ticks
	h.events = append(h.events, "tick")
	h.mu.Unlock()

	if h.onTick != nil {
		h.onTick(n)
	}
}

func (h *recordingHandler) Input(b byte) {
	h.mu.Lock()
	h.events = append(h.events, "input:"+string(b))
	h.mu.Unlock()

	if h.onInput != nil {
		h.onInput(b)
	}
}

func (h *recordingHandler) Shutdown() {
	h.mu.Lock()
	h.events = append(h.events, "shutdown")
	h.mu.Unlock()
}

func (h *recordingHandler) recorded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func runAsync(t *testing.T, ctx context.Context, l *Loop, h Handler) <-chan error {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx, h)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestNewRequiresPeriod(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}

func TestExitHasPriority(t *testing.T) {
	l, err := New(Options{Ticks: make(chan time.Time)})
	require.NoError(t, err)

	l.pending = 'u'
	l.raise(&l.input)
	l.raise(&l.tick)
	l.RequestExit()

	h := &recordingHandler{}
	waitDone(t, runAsync(t, context.Background(), l, h))

	assert.Equal(t, []string{"shutdown"}, h.recorded())
}

func TestTickBeforeInput(t *testing.T) {
	l, err := New(Options{Ticks: make(chan time.Time)})
	require.NoError(t, err)

	l.pending = 'c'
	l.raise(&l.input)
	l.raise(&l.tick)

	h := &recordingHandler{onInput: func(byte) { l.RequestExit() }}
	waitDone(t, runAsync(t, context.Background(), l, h))

	assert.Equal(t, []string{"tick", "input:c", "shutdown"}, h.recorded())
}

func TestTicksDispatched(t *testing.T) {
	ticks := make(chan time.Time)
	l, err := New(Options{Ticks: ticks})
	require.NoError(t, err)

	ticked := make(chan struct{})
	h := &recordingHandler{onTick: func(int) { ticked <- struct{}{} }}

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(t, ctx, l, h)

	for i := 0; i < 3; i++ {
		ticks <- time.Now()
		<-ticked
	}
	cancel()
	waitDone(t, done)

	assert.Equal(t, []string{"tick", "tick", "tick", "shutdown"}, h.recorded())
}

func TestInputRearmed(t *testing.T) {
	l, err := New(Options{
		Ticks: make(chan time.Time),
		Input: strings.NewReader("uc\x1b"),
	})
	require.NoError(t, err)

	h := &recordingHandler{onInput: func(b byte) {
		if b == 0x1b {
			l.RequestExit()
		}
	}}
	waitDone(t, runAsync(t, context.Background(), l, h))

	assert.Equal(t, []string{"input:u", "input:c", "input:\x1b", "shutdown"}, h.recorded())
}

func TestInputEOFKeepsTicking(t *testing.T) {
	ticks := make(chan time.Time)
	l, err := New(Options{Ticks: ticks, Input: strings.NewReader("")})
	require.NoError(t, err)

	h := &recordingHandler{onTick: func(int) { l.RequestExit() }}
	done := runAsync(t, context.Background(), l, h)

	ticks <- time.Now()
	waitDone(t, done)

	assert.Equal(t, []string{"tick", "shutdown"}, h.recorded())
}

func TestCancelWithBlockedInput(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	l, err := New(Options{Period: time.Hour, Input: r})
	require.NoError(t, err)

	h := &recordingHandler{}
	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(t, ctx, l, h)

	cancel()
	waitDone(t, done)

	assert.Equal(t, []string{"shutdown"}, h.recorded())
}

func TestTimerTicks(t *testing.T) {
	l, err := New(Options{Period: 5 * time.Millisecond})
	require.NoError(t, err)

	h := &recordingHandler{onTick: func(n int) {
		if n == 2 {
			l.RequestExit()
		}
	}}
	waitDone(t, runAsync(t, context.Background(), l, h))

	assert.Equal(t, []string{"tick", "tick", "shutdown"}, h.recorded())
}
