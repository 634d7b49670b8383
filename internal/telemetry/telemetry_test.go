package telemetry

import (
	"context"
	"testing"
	"time"

	"codeberg.org/mutker/roverdash/internal/acquisition"
	"codeberg.org/mutker/roverdash/internal/ecu"
	"codeberg.org/mutker/roverdash/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	stored []*Update
	err    error
	closed bool
}

func (m *memoryRepository) Store(_ context.Context, u *Update) error {
	if m.err != nil {
		return m.err
	}
	m.stored = append(m.stored, u)
	return nil
}

func (m *memoryRepository) Close() error {
	m.closed = true
	return nil
}

func testUpdate() *Update {
	snap := ecu.NewSnapshot()
	snap.EngineSpeedRPM = 1800
	snap.RoadSpeedMPH = 35
	snap.MainVoltage = 14.05
	snap.MILOn = true
	snap.Gear = ecu.GearParkOrNeutral

	return &Update{
		Timestamp: time.UnixMilli(1500),
		Result:    acquisition.Success,
		Snapshot:  snap,
	}
}

func TestFields(t *testing.T) {
	u := testUpdate()
	fields := Fields(u)

	assert.Equal(t, int64(1500), fields["timestamp"])
	assert.Equal(t, "success", fields["result"])
	assert.Equal(t, uint16(1800), fields["rpm"])
	assert.Equal(t, uint8(35), fields["road-speed:mph"])
	assert.Equal(t, "14.05", fields["main-voltage"])
	assert.Equal(t, "on", fields["mil"])
	assert.Equal(t, "off", fields["fuel-pump"])
	assert.Equal(t, "P/N", fields["gear"])

	assert.NotContains(t, fields, "rpm-limit")
	assert.NotContains(t, fields, "fuel-map")
	assert.NotContains(t, fields, "tune")
}

func TestFieldsLatchedValues(t *testing.T) {
	u := testUpdate()
	u.Snapshot.RPMLimit.Set(5720)
	u.Snapshot.Tune.Set(ecu.TuneRevision{Tune: 0x3360})
	u.Snapshot.FuelMapIndex = 5
	u.Snapshot.FuelMapIndexRead = true

	fields := Fields(u)

	assert.Equal(t, uint16(5720), fields["rpm-limit"])
	assert.Equal(t, "3360", fields["tune"])
	assert.Equal(t, uint8(5), fields["fuel-map"])
}

func TestDisabledPublisherIsNoop(t *testing.T) {
	pub, err := NewService(context.Background(), DefaultConfig(), nil)
	require.NoError(t, err)

	assert.NoError(t, pub.Publish(context.Background(), testUpdate()))
	assert.NoError(t, pub.Close())
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	assert.NoError(t, cfg.Validate())

	cfg.Key = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidKey))

	cfg = DefaultConfig()
	cfg.Enabled = true
	cfg.Addr = ""
	assert.True(t, errors.HasCode(cfg.Validate(), ErrInvalidAddr))
}

func TestPublishStores(t *testing.T) {
	repo := &memoryRepository{}
	pub := newService(repo, DefaultConfig())

	require.NoError(t, pub.Publish(context.Background(), testUpdate()))
	assert.Len(t, repo.stored, 1)

	require.NoError(t, pub.Close())
	assert.True(t, repo.closed)
}

func TestPublishErrors(t *testing.T) {
	repo := &memoryRepository{err: errors.New().New(errors.ErrUnavailable)}
	pub := newService(repo, DefaultConfig())

	err := pub.Publish(context.Background(), testUpdate())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrPublishFailed))

	err = pub.Publish(context.Background(), &Update{})
	assert.True(t, errors.HasCode(err, ErrInvalidUpdate))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo.err = nil
	err = pub.Publish(ctx, testUpdate())
	assert.True(t, errors.HasCode(err, ErrOperationTimeout))
}

func TestConnectFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 500 * time.Millisecond

	_, err := NewService(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrConnect))
}
