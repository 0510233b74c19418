package ws281x

import (
	"fmt"
	"time"
)

// Level is the logic level of the data line during one half of a symbol.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "H"
	}
	return "L"
}

// MaxTicks is the largest duration a single half can carry. It matches the
// 15 bit duration field of a packed pulse code.
const MaxTicks = 1<<15 - 1

// Half is one (level, duration) half period of a symbol.
type Half struct {
	Level Level
	Ticks uint16
}

// Symbol is one transmitted protocol bit: a high half followed by a low half.
type Symbol struct {
	First  Half
	Second Half
}

// Reset is the trailing end-of-frame symbol. Both halves are low with zero
// duration; the latch time itself is provided by the idle gap after the frame.
var Reset = Symbol{First: Half{Level: Low}, Second: Half{Level: Low}}

// Code packs the symbol into the 32 bit pulse code layout used by RMT style
// peripherals: bits [14:0] first duration, bit 15 first level, bits [30:16]
// second duration, bit 31 second level.
func (s Symbol) Code() uint32 {
	return packHalf(s.First) | packHalf(s.Second)<<16
}

func packHalf(h Half) uint32 {
	return uint32(h.Ticks&MaxTicks) | uint32(h.Level&1)<<15
}

// SymbolFromCode is the inverse of Symbol.Code.
func SymbolFromCode(code uint32) Symbol {
	return Symbol{
		First:  unpackHalf(uint16(code)),
		Second: unpackHalf(uint16(code >> 16)),
	}
}

func unpackHalf(v uint16) Half {
	return Half{Level: Level(v >> 15), Ticks: v & MaxTicks}
}

// Duration returns the wall time the symbol occupies on the wire at tickHz.
func (s Symbol) Duration(tickHz uint32) time.Duration {
	return TicksToDuration(uint32(s.First.Ticks)+uint32(s.Second.Ticks), tickHz)
}

func (s Symbol) String() string {
	return fmt.Sprintf("(%s,%d)(%s,%d)", s.First.Level, s.First.Ticks, s.Second.Level, s.Second.Ticks)
}
