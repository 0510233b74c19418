//go:build !tinygo

package transmitter_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTickHz = 80_000_000

func encodedBuffer(t *testing.T, frame ws281x.Frame) *ws281x.PulseBuffer {
	t.Helper()
	enc, err := ws281x.NewEncoder(ws281x.DefaultTiming, testTickHz, ws281x.MSBFirst)
	require.NoError(t, err)
	buf := ws281x.NewPulseBuffer(frame.LEDs())
	require.NoError(t, enc.EncodeFrame(frame, buf))
	return buf
}

func TestRecorder_WaitReturnsBuffer(t *testing.T) {
	t.Parallel()

	rec := transmitter.NewRecorder()
	buf := encodedBuffer(t, ws281x.Frame{0x10, 0x20, 0x30})

	pending, err := rec.Start(context.Background(), buf)
	require.NoError(t, err)

	got, err := pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, buf, got)

	frames := rec.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, buf.Symbols(), frames[0])
	assert.Equal(t, 1, rec.Starts())
	assert.NoError(t, rec.Close())
}

func TestRecorder_BusyWhileInFlight(t *testing.T) {
	t.Parallel()

	rec := transmitter.NewRecorder(transmitter.WithDelay(50 * time.Millisecond))
	buf := encodedBuffer(t, ws281x.NewFrame(2))
	other := ws281x.NewPulseBuffer(2)

	pending, err := rec.Start(context.Background(), buf)
	require.NoError(t, err)

	_, err = rec.Start(context.Background(), other)
	assert.ErrorIs(t, err, transmitter.ErrBusy)

	_, err = pending.Wait(context.Background())
	require.NoError(t, err)

	// the channel is free again once the previous frame completed
	pending, err = rec.Start(context.Background(), other)
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, rec.Starts())
	assert.Len(t, rec.Frames(), 2)
}

func TestRecorder_ReportsHardwareError(t *testing.T) {
	t.Parallel()

	fault := errors.New("underrun")
	rec := transmitter.NewRecorder(transmitter.WithError(fault))
	buf := encodedBuffer(t, ws281x.NewFrame(1))

	pending, err := rec.Start(context.Background(), buf)
	require.NoError(t, err)

	got, err := pending.Wait(context.Background())
	assert.ErrorIs(t, err, fault)
	assert.Same(t, buf, got)
}

func TestPending_WaitContextCancelled(t *testing.T) {
	t.Parallel()

	rec := transmitter.NewRecorder(transmitter.WithDelay(100 * time.Millisecond))
	buf := encodedBuffer(t, ws281x.NewFrame(1))

	pending, err := rec.Start(context.Background(), buf)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	got, err := pending.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, got)

	<-pending.Done()
	got, err = pending.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, buf, got)
}

func TestRecorder_CloseWaitsForInFlight(t *testing.T) {
	t.Parallel()

	rec := transmitter.NewRecorder(transmitter.WithDelay(20 * time.Millisecond))
	pending, err := rec.Start(context.Background(), encodedBuffer(t, ws281x.NewFrame(1)))
	require.NoError(t, err)

	require.NoError(t, rec.Close())
	select {
	case <-pending.Done():
	default:
		t.Fatal("Close returned before the in-flight frame completed")
	}

	_, err = rec.Start(context.Background(), ws281x.NewPulseBuffer(1))
	assert.ErrorIs(t, err, transmitter.ErrClosed)
}

func TestSimulated_TakesWireTime(t *testing.T) {
	t.Parallel()

	sim := transmitter.NewSimulated(testTickHz)
	defer sim.Close()

	buf := encodedBuffer(t, ws281x.NewFrame(10))

	start := time.Now()
	pending, err := sim.Start(context.Background(), buf)
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), buf.Duration(testTickHz))
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	enc, err := ws281x.NewEncoder(ws281x.DefaultTiming, testTickHz, ws281x.MSBFirst)
	require.NoError(t, err)

	_, herr := transmitter.Open(context.Background(), transmitter.Options{Driver: "dma"}, enc, 1)
	require.Error(t, herr)
	assert.Contains(t, herr.Error(), `unknown transmitter driver "dma"`)
}

func TestOpen_Simulated(t *testing.T) {
	t.Parallel()

	enc, err := ws281x.NewEncoder(ws281x.DefaultTiming, testTickHz, ws281x.MSBFirst)
	require.NoError(t, err)

	tx, herr := transmitter.Open(context.Background(), transmitter.Options{Driver: transmitter.DriverSim}, enc, 1)
	require.Nil(t, herr)
	assert.IsType(t, &transmitter.Simulated{}, tx)
	assert.NoError(t, tx.Close())
}

func TestPreview_DrawsDecodedFrame(t *testing.T) {
	t.Parallel()

	enc, err := ws281x.NewEncoder(ws281x.DefaultTiming, testTickHz, ws281x.MSBFirst)
	require.NoError(t, err)

	var out bytes.Buffer
	p := transmitter.NewPreview(&out, enc, led.OrderGRB)

	buf := encodedBuffer(t, ws281x.Frame{0xff, 0x00, 0x00, 0x00, 0xff, 0x00})
	pending, err := p.Start(context.Background(), buf)
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.True(t, strings.HasPrefix(out.String(), "\r"))
	assert.Equal(t, 2, strings.Count(out.String(), "██"))
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestPreview_RejectsCorruptBuffer(t *testing.T) {
	t.Parallel()

	enc, err := ws281x.NewEncoder(ws281x.DefaultTiming, testTickHz, ws281x.MSBFirst)
	require.NoError(t, err)

	p := transmitter.NewPreview(io.Discard, enc, led.OrderGRB)
	defer p.Close()

	// a fresh buffer holds no valid data symbols
	pending, err := p.Start(context.Background(), ws281x.NewPulseBuffer(1))
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	assert.ErrorContains(t, err, "preview cannot decode pulse buffer")
}
