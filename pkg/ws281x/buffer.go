package ws281x

import (
	"errors"
	"fmt"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
)

const (
	BytesPerLED    = 3
	SymbolsPerByte = 8
	SymbolsPerLED  = BytesPerLED * SymbolsPerByte
)

var ErrFrameLength = errors.New("frame length does not match pulse buffer")

// Frame is the color data of a whole strip, three bytes per LED in wire
// channel order.
type Frame []byte

// NewFrame allocates a zeroed frame for leds LEDs.
func NewFrame(leds int) Frame {
	return make(Frame, leds*BytesPerLED)
}

func (f Frame) LEDs() int {
	return len(f) / BytesPerLED
}

// SetPixel stores c for LED idx using the given channel order.
func (f Frame) SetPixel(idx int, c led.Color, order led.ChannelOrder) {
	order.Put(f[idx*BytesPerLED:(idx+1)*BytesPerLED], c)
}

// Pixel reads the color of LED idx.
func (f Frame) Pixel(idx int, order led.ChannelOrder) led.Color {
	return order.Get(f[idx*BytesPerLED : (idx+1)*BytesPerLED])
}

// PulseBufferLen is the number of symbols needed for leds LEDs, including the
// trailing reset symbol.
func PulseBufferLen(leds int) int {
	return leds*SymbolsPerLED + 1
}

// PulseBuffer is a fixed-length symbol sequence for one strip update. Its
// contents are only written by Encoder.EncodeFrame; transmitters read it.
type PulseBuffer struct {
	symbols []Symbol
}

// NewPulseBuffer allocates a buffer for leds LEDs. A fresh buffer already ends
// with the reset symbol.
func NewPulseBuffer(leds int) *PulseBuffer {
	if leds < 1 {
		panic(fmt.Sprintf("ws281x: invalid LED count %d", leds))
	}
	buf := &PulseBuffer{symbols: make([]Symbol, PulseBufferLen(leds))}
	buf.symbols[len(buf.symbols)-1] = Reset
	return buf
}

func (b *PulseBuffer) Len() int {
	return len(b.symbols)
}

func (b *PulseBuffer) LEDs() int {
	return (len(b.symbols) - 1) / SymbolsPerLED
}

// Symbols returns the buffer contents. Callers must not modify the slice.
func (b *PulseBuffer) Symbols() []Symbol {
	return b.symbols
}

// AppendCodes appends the packed pulse code of every symbol to dst.
func (b *PulseBuffer) AppendCodes(dst []uint32) []uint32 {
	for _, s := range b.symbols {
		dst = append(dst, s.Code())
	}
	return dst
}

// Duration returns the time the buffer occupies on the wire at tickHz.
func (b *PulseBuffer) Duration(tickHz uint32) time.Duration {
	var ticks uint64
	for _, s := range b.symbols {
		ticks += uint64(s.First.Ticks) + uint64(s.Second.Ticks)
	}
	if tickHz == 0 {
		return 0
	}
	return time.Duration(ticks * uint64(time.Second) / uint64(tickHz))
}

// Terminate stores the reset symbol in the last slot.
func (b *PulseBuffer) Terminate() {
	b.symbols[len(b.symbols)-1] = Reset
}

// EncodeData writes the symbols for frame into the data slots of buf, LED 0
// first. The reset slot is left alone.
func (e *Encoder) EncodeData(frame Frame, buf *PulseBuffer) error {
	if len(frame)*SymbolsPerByte+1 != len(buf.symbols) {
		return fmt.Errorf("%w: %d bytes for a %d symbol buffer", ErrFrameLength, len(frame), len(buf.symbols))
	}

	for i, b := range frame {
		symbols := e.EncodeByte(b)
		copy(buf.symbols[i*SymbolsPerByte:(i+1)*SymbolsPerByte], symbols[:])
	}
	return nil
}

// EncodeFrame writes the symbols for frame into buf and terminates it with
// the reset symbol.
func (e *Encoder) EncodeFrame(frame Frame, buf *PulseBuffer) error {
	if err := e.EncodeData(frame, buf); err != nil {
		return err
	}
	buf.Terminate()
	return nil
}

// DecodeFrame reconstructs the color bytes carried by buf into frame.
func (e *Encoder) DecodeFrame(buf *PulseBuffer, frame Frame) error {
	if len(frame)*SymbolsPerByte+1 != len(buf.symbols) {
		return fmt.Errorf("%w: %d bytes for a %d symbol buffer", ErrFrameLength, len(frame), len(buf.symbols))
	}
	if last := buf.symbols[len(buf.symbols)-1]; last != Reset {
		return fmt.Errorf("pulse buffer does not end with the reset symbol: %s", last)
	}

	for i := range frame {
		b, err := e.DecodeByte(buf.symbols[i*SymbolsPerByte : (i+1)*SymbolsPerByte])
		if err != nil {
			return fmt.Errorf("byte %d: %w", i, err)
		}
		frame[i] = b
	}
	return nil
}
