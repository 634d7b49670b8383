package dashboard

import (
	"context"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/roverdash/internal/acquisition"
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/errors"
	"codeberg.org/mutker/roverdash/internal/eventloop"
	"codeberg.org/mutker/roverdash/internal/metrics"
	"codeberg.org/mutker/roverdash/internal/telemetry"
	"codeberg.org/mutker/roverdash/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRenderer struct {
	layouts  int
	values   int
	statuses []bool
	faults   []ui.FaultReport
	popup    bool
	closed   bool
}

func (r *recordingRenderer) DrawLayout(ui.Units)                { r.layouts++ }
func (r *recordingRenderer) DrawValues(*ecu.Snapshot, ui.Units) { r.values++ }
func (r *recordingRenderer) HideFaults()                        { r.popup = false }

func (r *recordingRenderer) ShowFaults(report ui.FaultReport) {
	r.faults = append(r.faults, report)
	r.popup = true
}

func (r *recordingRenderer) ShowStatus(readOK, _ bool) {
	r.statuses = append(r.statuses, readOK)
}

func (r *recordingRenderer) Close() error {
	r.closed = true
	return nil
}

type fakeRecorder struct {
	samples []*metrics.Sample
	err     error
	closed  bool
}

func (f *fakeRecorder) Record(_ context.Context, s *metrics.Sample) error {
	f.samples = append(f.samples, s)
	return f.err
}

func (f *fakeRecorder) Close() error {
	f.closed = true
	return nil
}

type fakePublisher struct {
	updates []*telemetry.Update
	closed  bool
}

func (f *fakePublisher) Publish(_ context.Context, u *telemetry.Update) error {
	f.updates = append(f.updates, u)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fixture struct {
	app       *App
	driver    *ecu.SimDriver
	renderer  *recordingRenderer
	recorder  *fakeRecorder
	publisher *fakePublisher
	now       time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T, device string) *fixture {
	t.Helper()

	f := &fixture{
		driver:    ecu.NewSimDriver(ecu.Options{Seed: 1}),
		renderer:  &recordingRenderer{},
		recorder:  &fakeRecorder{},
		publisher: &fakePublisher{},
		now:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.driver.SetClock(clock)

	if device != "" {
		require.NoError(t, f.driver.Connect(device))
	}

	acq := acquisition.NewAcquirer(f.driver, nil, acquisition.ReadOptions{}, nil)
	f.app = New(f.driver, acq, f.renderer, Options{
		Device:    device,
		Mode:      acquisition.ModeContext{Feedback: ecu.ClosedLoop, LambdaTrim: ecu.LongTerm},
		Units:     ui.Metric,
		Recorder:  f.recorder,
		Publisher: f.publisher,
		Clock:     clock,
	})

	return f
}

func TestTickUpdatesEverything(t *testing.T) {
	f := newFixture(t, "/dev/sim")
	f.advance(30 * time.Second)

	f.app.Tick()

	snap := f.app.Snapshot()
	assert.NotZero(t, snap.EngineSpeedRPM)
	assert.True(t, snap.Tune.IsSet())
	assert.True(t, snap.RPMLimit.IsSet())

	assert.Equal(t, 1, f.renderer.values)
	assert.Equal(t, []bool{true}, f.renderer.statuses)

	require.Len(t, f.recorder.samples, 1)
	assert.Equal(t, acquisition.Success, f.recorder.samples[0].Result)
	assert.Equal(t, snap.EngineSpeedRPM, f.recorder.samples[0].EngineRPM)

	require.Len(t, f.publisher.updates, 1)
	assert.Same(t, snap, f.publisher.updates[0].Snapshot)
}

func TestTickUsesElapsedTime(t *testing.T) {
	f := newFixture(t, "/dev/sim")
	sched := f.app.acq.Scheduler()

	for i := 0; i < 5; i++ {
		f.app.Tick()
		f.advance(300 * time.Millisecond)
	}

	last, polled := sched.LastPoll(acquisition.RoadSpeed)
	require.True(t, polled)
	assert.Equal(t, int64(1200), last)
}

func TestTickReconnects(t *testing.T) {
	f := newFixture(t, "/dev/sim")
	f.advance(10 * time.Second)
	f.app.Tick()
	first := f.app.Snapshot()

	require.NoError(t, f.driver.Disconnect())
	f.advance(time.Second)
	f.app.Tick()

	assert.True(t, f.driver.Connected())
	assert.NotSame(t, first, f.app.Snapshot())
	last, _ := f.app.acq.Scheduler().LastPoll(acquisition.EngineTemperature)
	assert.Equal(t, int64(11000), last, "schedule starts over after reconnecting")
	// the RPM limit outlives the connection
	assert.True(t, f.app.Snapshot().RPMLimit.IsSet())
}

func TestTickWithoutLink(t *testing.T) {
	f := newFixture(t, "")

	f.app.Tick()

	assert.Equal(t, []bool{false}, f.renderer.statuses)
	assert.Zero(t, f.renderer.values)
	assert.Empty(t, f.recorder.samples)
	assert.Empty(t, f.publisher.updates)
}

func TestRecorderFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, "/dev/sim")
	f.recorder.err = errors.New().New(metrics.ErrRecordFailed)

	f.app.Tick()
	f.advance(200 * time.Millisecond)
	f.app.Tick()

	assert.Len(t, f.recorder.samples, 2)
	assert.Len(t, f.publisher.updates, 2)
}

func TestFaultKey(t *testing.T) {
	f := newFixture(t, "/dev/sim")
	f.app.Tick()

	f.app.Input('c')

	assert.Equal(t, ui.FaultPopup, f.app.Controller().View())
	require.Len(t, f.renderer.faults, 1)
	assert.Equal(t, []string{"* (88) Purge valve leak"}, f.renderer.faults[0].Lines())

	f.app.Input(ui.KeyEscape)
	assert.Equal(t, ui.Main, f.app.Controller().View())
	assert.False(t, f.renderer.popup)
}

func TestRunUntilInterrupt(t *testing.T) {
	f := newFixture(t, "/dev/sim")
	ticks := make(chan time.Time)

	done := make(chan error, 1)
	go func() {
		done <- f.app.Run(context.Background(), eventloop.Options{
			Ticks: ticks,
			Input: strings.NewReader("u\x03"),
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dashboard did not stop")
	}

	assert.Equal(t, ui.Imperial, f.app.Controller().Units())
	assert.True(t, f.renderer.closed)
	assert.True(t, f.recorder.closed)
	assert.True(t, f.publisher.closed)
	assert.Equal(t, 2, f.renderer.layouts, "initial layout and units toggle")
}
