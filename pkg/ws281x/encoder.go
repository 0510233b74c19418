// Package ws281x encodes color bytes into the pulse symbols of the one-wire
// WS2812 protocol and frames them into strip-sized pulse buffers.
package ws281x

import (
	"fmt"
	"strings"
)

// BitOrder selects which bit of a byte is transmitted first.
type BitOrder int

const (
	// MSBFirst is the order WS2812 LEDs shift data in.
	MSBFirst BitOrder = iota
	LSBFirst
)

func (o BitOrder) String() string {
	switch o {
	case MSBFirst:
		return "msb"
	case LSBFirst:
		return "lsb"
	default:
		return fmt.Sprintf("BitOrder(%d)", int(o))
	}
}

// ParseBitOrder accepts "msb" or "lsb" (case insensitive).
func ParseBitOrder(s string) (BitOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "msb", "msb-first":
		return MSBFirst, nil
	case "lsb", "lsb-first":
		return LSBFirst, nil
	default:
		return MSBFirst, fmt.Errorf("unsupported bit order %q: expected msb or lsb", s)
	}
}

// Encoder maps bytes to pulse symbols. It is immutable after construction and
// safe for concurrent use.
type Encoder struct {
	order  BitOrder
	tickHz uint32
	zero   Symbol
	one    Symbol
}

// NewEncoder compiles timing for tickHz and returns an encoder emitting bits
// in the given order.
func NewEncoder(timing Timing, tickHz uint32, order BitOrder) (*Encoder, error) {
	if order != MSBFirst && order != LSBFirst {
		return nil, fmt.Errorf("invalid bit order %s", order)
	}

	zero, one, err := timing.Compile(tickHz)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pulse timing: %w", err)
	}

	return &Encoder{
		order:  order,
		tickHz: tickHz,
		zero:   zero,
		one:    one,
	}, nil
}

func (e *Encoder) Order() BitOrder  { return e.order }
func (e *Encoder) TickRate() uint32 { return e.tickHz }
func (e *Encoder) Zero() Symbol     { return e.zero }
func (e *Encoder) One() Symbol      { return e.one }

// EncodeByte returns the eight symbols for b.
func (e *Encoder) EncodeByte(b byte) (out [8]Symbol) {
	for i := 0; i < 8; i++ {
		shift := uint(7 - i)
		if e.order == LSBFirst {
			shift = uint(i)
		}
		if (b>>shift)&1 == 1 {
			out[i] = e.one
		} else {
			out[i] = e.zero
		}
	}
	return out
}

// Bit classifies a symbol by its high duration.
func (e *Encoder) Bit(s Symbol) (byte, error) {
	if s.First.Level != High || s.Second.Level != Low {
		return 0, fmt.Errorf("symbol %s is not a data symbol", s)
	}
	switch s.First.Ticks {
	case e.one.First.Ticks:
		return 1, nil
	case e.zero.First.Ticks:
		return 0, nil
	default:
		return 0, fmt.Errorf("symbol %s matches neither bit 0 %s nor bit 1 %s", s, e.zero, e.one)
	}
}

// DecodeByte reconstructs a byte from eight symbols.
func (e *Encoder) DecodeByte(symbols []Symbol) (byte, error) {
	if len(symbols) != 8 {
		return 0, fmt.Errorf("need 8 symbols to decode a byte, got %d", len(symbols))
	}

	var b byte
	for i, s := range symbols {
		bit, err := e.Bit(s)
		if err != nil {
			return 0, fmt.Errorf("bit %d: %w", i, err)
		}
		shift := uint(7 - i)
		if e.order == LSBFirst {
			shift = uint(i)
		}
		b |= bit << shift
	}
	return b, nil
}
