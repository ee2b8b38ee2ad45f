package service

import (
	"context"
	"testing"
	"time"

	"electrometer_acquisition/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstrumentService(fx *recorderFixture, opts Options) *InstrumentService {
	return NewInstrumentService(fx.session, fx.engine, fx.events, opts, fx.recorder.log)
}

func TestInstrument_ConnectNoAddress(t *testing.T) {
	fx := newRecorderFixture(t)
	svc := newInstrumentService(fx, Options{})

	_, err := svc.Connect(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAddress)
	assert.Empty(t, fx.events.all())
}

func TestInstrument_ConnectUsesDefaultAddress(t *testing.T) {
	fx := newRecorderFixture(t)
	svc := newInstrumentService(fx, Options{DefaultAddress: "sim:0"})

	idn, err := svc.Connect(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, idn, "MODEL 6514")

	info := svc.Info()
	assert.True(t, info.Connected)
	assert.Equal(t, "sim:0", info.Address)
	assert.Equal(t, idn, info.Identity)

	events := fx.events.all()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeConnect, events[0].Type)
}

func TestInstrument_ConnectTwice(t *testing.T) {
	fx := newRecorderFixture(t)
	svc := newInstrumentService(fx, Options{})

	first, err := svc.Connect(context.Background(), "sim:0")
	require.NoError(t, err)

	second, err := svc.Connect(context.Background(), "sim:1")
	assert.ErrorIs(t, err, ErrAlreadyConnected)
	assert.Equal(t, first, second, "repeated connect reports the existing identity")

	// only the first connect is logged
	assert.Len(t, fx.events.all(), 1)
}

func TestInstrument_DisconnectWhenNotConnected(t *testing.T) {
	fx := newRecorderFixture(t)
	svc := newInstrumentService(fx, Options{})

	require.NoError(t, svc.Disconnect(context.Background()))
	assert.Empty(t, fx.events.all())
}

func TestInstrument_DisconnectStopsRunningAcquisition(t *testing.T) {
	fx := newRecorderFixture(t)
	svc := newInstrumentService(fx, Options{})

	_, err := svc.Connect(context.Background(), "sim:0")
	require.NoError(t, err)

	cfg := models.DefaultConfig()
	cfg.DurationS = 60
	cfg.ChunkSize = 1
	require.NoError(t, fx.engine.Start(cfg))

	require.NoError(t, svc.Disconnect(context.Background()))

	assert.False(t, svc.Info().Connected)
	assert.Equal(t, models.StateIdle, fx.engine.State(), "disconnect resets a finished run to idle")

	events := fx.events.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventTypeDisconnect, events[1].Type)
}

func TestInstrument_ConnectTimeoutDefaulted(t *testing.T) {
	fx := newRecorderFixture(t)
	svc := newInstrumentService(fx, Options{ConnectTimeout: -time.Second})
	assert.Equal(t, defaultConnectTimeout, svc.opts.ConnectTimeout)
}
