package ws281x_test

import (
	"math/rand"
	"testing"

	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseBuffer_LengthInvariant(t *testing.T) {
	t.Parallel()

	for leds := 1; leds <= 64; leds++ {
		buf := ws281x.NewPulseBuffer(leds)
		assert.Equal(t, leds*24+1, buf.Len())
		assert.Equal(t, ws281x.PulseBufferLen(leds), buf.Len())
		assert.Equal(t, leds, buf.LEDs())
		assert.Equal(t, ws281x.Reset, buf.Symbols()[buf.Len()-1])
		assert.Len(t, ws281x.NewFrame(leds), leds*3)
	}
}

func TestEncoder_EncodeFrameSingleLEDAllZero(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)
	frame := ws281x.NewFrame(1)
	buf := ws281x.NewPulseBuffer(1)

	require.NoError(t, enc.EncodeFrame(frame, buf))
	require.Equal(t, 25, buf.Len())

	symbols := buf.Symbols()
	for i := 0; i < 24; i++ {
		assert.Equal(t, bit0, symbols[i], "symbol %d", i)
	}
	assert.Equal(t, ws281x.Reset, symbols[24])
}

func TestEncoder_EncodeFrameOrder(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)
	frame := ws281x.Frame{0xff, 0x00, 0x80, 0x01, 0x00, 0x00}
	buf := ws281x.NewPulseBuffer(2)

	require.NoError(t, enc.EncodeFrame(frame, buf))

	symbols := buf.Symbols()
	for i, b := range frame {
		want := enc.EncodeByte(b)
		assert.Equal(t, want[:], symbols[i*8:(i+1)*8], "byte %d", i)
	}
	assert.Equal(t, ws281x.Reset, symbols[len(symbols)-1])
}

func TestEncoder_EncodeFrameRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))

	for _, order := range []ws281x.BitOrder{ws281x.MSBFirst, ws281x.LSBFirst} {
		enc := newEncoder(t, order)
		for _, leds := range []int{1, 2, 7, 60, 144} {
			frame := ws281x.NewFrame(leds)
			rng.Read(frame)
			buf := ws281x.NewPulseBuffer(leds)

			require.NoError(t, enc.EncodeFrame(frame, buf))

			decoded := ws281x.NewFrame(leds)
			require.NoError(t, enc.DecodeFrame(buf, decoded))
			assert.Equal(t, frame, decoded, "order %s, %d LEDs", order, leds)
		}
	}
}

func TestEncoder_EncodeFrameIdempotent(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)
	frame := ws281x.Frame{1, 2, 3, 250, 251, 252}
	buf := ws281x.NewPulseBuffer(2)

	require.NoError(t, enc.EncodeFrame(frame, buf))
	first := append([]ws281x.Symbol(nil), buf.Symbols()...)

	require.NoError(t, enc.EncodeFrame(frame, buf))
	assert.Equal(t, first, buf.Symbols())
}

func TestEncoder_EncodeFrameLengthMismatch(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)
	buf := ws281x.NewPulseBuffer(2)

	err := enc.EncodeFrame(ws281x.NewFrame(1), buf)
	assert.ErrorIs(t, err, ws281x.ErrFrameLength)

	err = enc.EncodeFrame(ws281x.Frame{1, 2, 3, 4}, buf)
	assert.ErrorIs(t, err, ws281x.ErrFrameLength)

	err = enc.DecodeFrame(buf, ws281x.NewFrame(3))
	assert.ErrorIs(t, err, ws281x.ErrFrameLength)
}

func TestPulseBuffer_Codes(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)
	buf := ws281x.NewPulseBuffer(1)
	require.NoError(t, enc.EncodeFrame(ws281x.Frame{0xff, 0x00, 0x00}, buf))

	codes := buf.AppendCodes(nil)
	require.Len(t, codes, 25)
	for i := 0; i < 8; i++ {
		assert.Equal(t, bit1.Code(), codes[i])
	}
	for i := 8; i < 24; i++ {
		assert.Equal(t, bit0.Code(), codes[i])
	}
	assert.Equal(t, uint32(0), codes[24])

	// 8 * 100 ticks + 16 * 100 ticks at 80 MHz
	assert.Equal(t, "30µs", buf.Duration(testTickHz).String())
}

func TestFrame_Pixels(t *testing.T) {
	t.Parallel()

	frame := ws281x.NewFrame(2)
	frame.SetPixel(1, led.Color{Red: 10, Green: 20, Blue: 30}, led.OrderGRB)

	assert.Equal(t, ws281x.Frame{0, 0, 0, 20, 10, 30}, frame)
	assert.Equal(t, led.Color{Red: 10, Green: 20, Blue: 30}, frame.Pixel(1, led.OrderGRB))
	assert.Equal(t, 2, frame.LEDs())
}

func TestEncoder_EncodeDataThenTerminate(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)
	frame := ws281x.Frame{0xb0, 0x0f, 0x55}

	want := ws281x.NewPulseBuffer(1)
	require.NoError(t, enc.EncodeFrame(frame, want))

	buf := ws281x.NewPulseBuffer(1)
	require.NoError(t, enc.EncodeData(frame, buf))
	buf.Terminate()

	assert.Equal(t, want.Symbols(), buf.Symbols())
	assert.ErrorIs(t, enc.EncodeData(ws281x.NewFrame(2), buf), ws281x.ErrFrameLength)
}
