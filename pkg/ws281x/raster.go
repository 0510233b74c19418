package ws281x

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Rasterizer converts symbols into a fixed-resolution bit stream, one output
// bit per bit period, MSB first. It is used by transmitters that shift raw bits
// out of a serializer (PWM FIFO, SPI MOSI) instead of consuming pulse codes.
//
// A Rasterizer keeps scratch space and is not safe for concurrent use.
type Rasterizer struct {
	tickHz  uint32
	bitHz   uint64
	scratch []byte
}

// NewRasterizer returns a rasterizer for symbols expressed at tickHz, emitting
// bitHz output bits per second.
func NewRasterizer(tickHz uint32, bitHz uint64) (*Rasterizer, error) {
	if tickHz == 0 {
		return nil, ErrInvalidTickRate
	}
	if bitHz == 0 {
		return nil, errors.New("bit rate must be greater than zero")
	}
	return &Rasterizer{tickHz: tickHz, bitHz: bitHz}, nil
}

// BitPeriod is the duration of one output bit.
func (r *Rasterizer) BitPeriod() time.Duration {
	return time.Duration(uint64(time.Second) / r.bitHz)
}

// Bits returns the number of output bits used for h.
func (r *Rasterizer) Bits(h Half) int {
	return int((uint64(h.Ticks)*r.bitHz + uint64(r.tickHz)/2) / uint64(r.tickHz))
}

// Check verifies that the encoder's symbols survive rasterisation within
// Tolerance of the datasheet timing.
func (r *Rasterizer) Check(e *Encoder) error {
	halves := []struct {
		name    string
		half    Half
		nominal time.Duration
	}{
		{"T0H", e.zero.First, DefaultTiming.T0H},
		{"T0L", e.zero.Second, DefaultTiming.T0L},
		{"T1H", e.one.First, DefaultTiming.T1H},
		{"T1L", e.one.Second, DefaultTiming.T1L},
	}
	for _, h := range halves {
		bits := r.Bits(h.half)
		actual := time.Duration(uint64(bits) * uint64(time.Second) / r.bitHz)
		if bits == 0 || !withinTolerance(actual, h.nominal) {
			return fmt.Errorf("%s rasterised to %d bits (%s) at %d bit/s, outside %s +/- %s", h.name, bits, actual, r.bitHz, h.nominal, Tolerance)
		}
	}
	return nil
}

// AppendBytes appends the rasterised symbols to dst. The final byte is padded
// with low bits.
func (r *Rasterizer) AppendBytes(dst []byte, symbols []Symbol) []byte {
	w := bitWriter{buf: dst}
	for _, s := range symbols {
		w.write(s.First.Level, r.Bits(s.First))
		w.write(s.Second.Level, r.Bits(s.Second))
	}
	return w.buf
}

// AppendWords appends the rasterised symbols to dst as big endian 32 bit
// words, the first bit in the MSB. The final word is padded with low bits.
func (r *Rasterizer) AppendWords(dst []uint32, symbols []Symbol) []uint32 {
	r.scratch = r.AppendBytes(r.scratch[:0], symbols)
	for len(r.scratch)%4 != 0 {
		r.scratch = append(r.scratch, 0)
	}
	for i := 0; i < len(r.scratch); i += 4 {
		dst = append(dst, binary.BigEndian.Uint32(r.scratch[i:i+4]))
	}
	return dst
}

type bitWriter struct {
	buf  []byte
	used int // bits used in the last byte of buf, 0 if it is full
}

func (w *bitWriter) write(level Level, count int) {
	for count > 0 {
		if w.used == 0 {
			w.buf = append(w.buf, 0)
		}
		free := 8 - w.used
		n := count
		if n > free {
			n = free
		}
		if level == High {
			w.buf[len(w.buf)-1] |= byte((1<<n)-1) << (free - n)
		}
		w.used = (w.used + n) % 8
		count -= n
	}
}
