package ws281x_test

import (
	"testing"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTickHz = 80_000_000

var (
	bit0 = ws281x.Symbol{First: ws281x.Half{Level: ws281x.High, Ticks: 32}, Second: ws281x.Half{Level: ws281x.Low, Ticks: 68}}
	bit1 = ws281x.Symbol{First: ws281x.Half{Level: ws281x.High, Ticks: 64}, Second: ws281x.Half{Level: ws281x.Low, Ticks: 36}}
)

func newEncoder(t *testing.T, order ws281x.BitOrder) *ws281x.Encoder {
	t.Helper()
	enc, err := ws281x.NewEncoder(ws281x.DefaultTiming, testTickHz, order)
	require.NoError(t, err)
	return enc
}

func TestEncoder_EncodeByteScenario(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)

	got := enc.EncodeByte(0b10110000)
	want := [8]ws281x.Symbol{bit1, bit0, bit1, bit1, bit0, bit0, bit0, bit0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EncodeByte(0b10110000) mismatch (-want +got):\n%s", diff)
	}
}

func TestEncoder_EncodeByteLSBFirst(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.LSBFirst)

	got := enc.EncodeByte(0b10110000)
	want := [8]ws281x.Symbol{bit0, bit0, bit0, bit0, bit1, bit1, bit0, bit1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EncodeByte(0b10110000) mismatch (-want +got):\n%s", diff)
	}
}

func TestEncoder_EncodeByteAllValues(t *testing.T) {
	t.Parallel()

	for _, order := range []ws281x.BitOrder{ws281x.MSBFirst, ws281x.LSBFirst} {
		order := order
		t.Run(order.String(), func(t *testing.T) {
			t.Parallel()
			enc := newEncoder(t, order)

			for v := 0; v < 256; v++ {
				b := byte(v)
				symbols := enc.EncodeByte(b)
				require.Len(t, symbols, 8)

				for i, s := range symbols {
					shift := 7 - i
					if order == ws281x.LSBFirst {
						shift = i
					}
					isOne := (b>>shift)&1 == 1
					assert.Equal(t, isOne, s.First.Ticks == bit1.First.Ticks, "byte %08b bit %d", b, i)
					assert.Equal(t, ws281x.High, s.First.Level)
					assert.Equal(t, ws281x.Low, s.Second.Level)
				}

				decoded, err := enc.DecodeByte(symbols[:])
				require.NoError(t, err)
				assert.Equal(t, b, decoded)
			}
		})
	}
}

func TestEncoder_Bit(t *testing.T) {
	t.Parallel()

	enc := newEncoder(t, ws281x.MSBFirst)

	bit, err := enc.Bit(bit1)
	require.NoError(t, err)
	assert.Equal(t, byte(1), bit)

	bit, err = enc.Bit(bit0)
	require.NoError(t, err)
	assert.Equal(t, byte(0), bit)

	_, err = enc.Bit(ws281x.Reset)
	assert.Error(t, err)

	_, err = enc.Bit(ws281x.Symbol{First: ws281x.Half{Level: ws281x.High, Ticks: 48}, Second: ws281x.Half{Level: ws281x.Low, Ticks: 52}})
	assert.Error(t, err)

	_, err = enc.DecodeByte([]ws281x.Symbol{bit0, bit1})
	assert.EqualError(t, err, "need 8 symbols to decode a byte, got 2")
}

func TestParseBitOrder(t *testing.T) {
	t.Parallel()

	order, err := ws281x.ParseBitOrder("MSB")
	require.NoError(t, err)
	assert.Equal(t, ws281x.MSBFirst, order)

	order, err = ws281x.ParseBitOrder("lsb-first")
	require.NoError(t, err)
	assert.Equal(t, ws281x.LSBFirst, order)

	_, err = ws281x.ParseBitOrder("little")
	assert.Error(t, err)
}

func TestSymbol_Code(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0x00448020), bit0.Code())
	assert.Equal(t, uint32(0x00248040), bit1.Code())
	assert.Equal(t, uint32(0), ws281x.Reset.Code())

	assert.Equal(t, bit0, ws281x.SymbolFromCode(bit0.Code()))
	assert.Equal(t, bit1, ws281x.SymbolFromCode(bit1.Code()))
}

func TestNewEncoder_InvalidTiming(t *testing.T) {
	t.Parallel()

	_, err := ws281x.NewEncoder(ws281x.DefaultTiming, 1_000_000, ws281x.MSBFirst)
	assert.Error(t, err)

	_, err = ws281x.NewEncoder(ws281x.DefaultTiming, testTickHz, ws281x.BitOrder(7))
	assert.Error(t, err)
}
