//go:build !tinygo

package transmitter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSPI struct {
	mu     sync.Mutex
	writes [][]byte
	err    error
	closed bool
}

func (f *fakeSPI) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), w...))
	return f.err
}

func (f *fakeSPI) Close() error {
	f.closed = true
	return nil
}

func testEncoder(t *testing.T) *ws281x.Encoder {
	t.Helper()
	enc, err := ws281x.NewEncoder(ws281x.DefaultTiming, 80_000_000, ws281x.MSBFirst)
	require.NoError(t, err)
	return enc
}

func TestSPI_Stream(t *testing.T) {
	t.Parallel()

	enc := testEncoder(t)
	fake := &fakeSPI{}
	s, err := newSPI(fake, fake, DefaultSPISpeedHz, enc, 50*time.Microsecond)
	require.NoError(t, err)

	buf := ws281x.NewPulseBuffer(1)
	require.NoError(t, enc.EncodeFrame(ws281x.Frame{0x80, 0x00, 0xff}, buf))

	pending, err := s.Start(context.Background(), buf)
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	require.NoError(t, err)

	// 50µs at 2.4 MHz is 120 bits of leading low
	want := make([]byte, 15)
	want = append(want,
		0xd2, 0x49, 0x24,
		0x92, 0x49, 0x24,
		0xdb, 0x6d, 0xb6,
		0x00,
	)

	require.Len(t, fake.writes, 1)
	assert.Equal(t, want, fake.writes[0])

	require.NoError(t, s.Close())
	assert.True(t, fake.closed)
}

func TestSPI_TxError(t *testing.T) {
	t.Parallel()

	enc := testEncoder(t)
	fake := &fakeSPI{err: errors.New("EIO")}
	s, err := newSPI(fake, nil, DefaultSPISpeedHz, enc, 0)
	require.NoError(t, err)

	pending, err := s.Start(context.Background(), ws281x.NewPulseBuffer(1))
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	assert.EqualError(t, err, "SPI transfer failed: EIO")
}

func TestSPI_MaxTxSize(t *testing.T) {
	t.Parallel()

	enc := testEncoder(t)
	fake := &fakeSPI{}
	s, err := newSPI(fake, nil, DefaultSPISpeedHz, enc, 0)
	require.NoError(t, err)
	s.maxTx = 4

	buf := ws281x.NewPulseBuffer(1)
	require.NoError(t, enc.EncodeFrame(ws281x.NewFrame(1), buf))

	pending, err := s.Start(context.Background(), buf)
	require.NoError(t, err)
	_, err = pending.Wait(context.Background())
	assert.EqualError(t, err, "SPI transfer of 10 bytes exceeds the port limit of 4 bytes")
	assert.Empty(t, fake.writes)
}

func TestSPI_RejectsSpeedsThatBreakTiming(t *testing.T) {
	t.Parallel()

	enc := testEncoder(t)
	_, err := newSPI(&fakeSPI{}, nil, 1_000_000, enc, 0)
	assert.Error(t, err)

	_, err = newSPI(&fakeSPI{}, nil, 0, enc, 0)
	assert.EqualError(t, err, "invalid SPI speed 0 Hz")
}
