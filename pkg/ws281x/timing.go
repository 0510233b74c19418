package ws281x

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Tolerance is the allowed deviation of every half period from the datasheet
// nominal value.
const Tolerance = 150 * time.Nanosecond

// Timing holds the nominal half period durations of the two protocol symbols.
type Timing struct {
	T0H time.Duration `mapstructure:"t0h" yaml:"t0h"`
	T0L time.Duration `mapstructure:"t0l" yaml:"t0l"`
	T1H time.Duration `mapstructure:"t1h" yaml:"t1h"`
	T1L time.Duration `mapstructure:"t1l" yaml:"t1l"`
}

// DefaultTickRate is an undivided 80 MHz peripheral clock.
const DefaultTickRate = 80_000_000

// DefaultTiming is the WS2812B datasheet timing.
var DefaultTiming = Timing{
	T0H: 400 * time.Nanosecond,
	T0L: 850 * time.Nanosecond,
	T1H: 800 * time.Nanosecond,
	T1L: 450 * time.Nanosecond,
}

var ErrInvalidTickRate = errors.New("tick rate must be greater than zero")

// DurationToTicks converts d into the nearest whole number of ticks at tickHz.
// Durations too long to count in 32 bits saturate at math.MaxUint32.
func DurationToTicks(d time.Duration, tickHz uint32) uint32 {
	if d <= 0 || tickHz == 0 {
		return 0
	}
	half := uint64(time.Second) / 2
	if uint64(d) > (math.MaxUint64-half)/uint64(tickHz) {
		return math.MaxUint32
	}
	ticks := (uint64(d)*uint64(tickHz) + half) / uint64(time.Second)
	if ticks > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ticks)
}

// TicksToDuration converts a tick count at tickHz into wall time.
func TicksToDuration(ticks, tickHz uint32) time.Duration {
	if tickHz == 0 {
		return 0
	}
	return time.Duration(uint64(ticks) * uint64(time.Second) / uint64(tickHz))
}

// Compile converts the timing into the bit 0 and bit 1 symbols at tickHz.
// Every realised half period must be representable and must lie within
// Tolerance of the datasheet value.
func (t Timing) Compile(tickHz uint32) (zero, one Symbol, err error) {
	if tickHz == 0 {
		return Symbol{}, Symbol{}, ErrInvalidTickRate
	}

	halves := []struct {
		name    string
		want    time.Duration
		nominal time.Duration
		level   Level
		dst     *Half
	}{
		{"T0H", t.T0H, DefaultTiming.T0H, High, &zero.First},
		{"T0L", t.T0L, DefaultTiming.T0L, Low, &zero.Second},
		{"T1H", t.T1H, DefaultTiming.T1H, High, &one.First},
		{"T1L", t.T1L, DefaultTiming.T1L, Low, &one.Second},
	}

	for _, h := range halves {
		ticks := DurationToTicks(h.want, tickHz)
		if ticks == 0 {
			return Symbol{}, Symbol{}, fmt.Errorf("%s of %s rounds to zero ticks at %d Hz", h.name, h.want, tickHz)
		}
		if ticks > MaxTicks {
			return Symbol{}, Symbol{}, fmt.Errorf("%s of %s needs %d ticks at %d Hz, maximum is %d", h.name, h.want, ticks, tickHz, MaxTicks)
		}
		actual := TicksToDuration(ticks, tickHz)
		if !withinTolerance(actual, h.nominal) {
			return Symbol{}, Symbol{}, fmt.Errorf("%s realised as %s at %d Hz, outside %s +/- %s", h.name, actual, tickHz, h.nominal, Tolerance)
		}
		*h.dst = Half{Level: h.level, Ticks: uint16(ticks)}
	}

	if zero.First.Ticks >= one.First.Ticks {
		return Symbol{}, Symbol{}, fmt.Errorf("T0H (%d ticks) must be shorter than T1H (%d ticks) at %d Hz", zero.First.Ticks, one.First.Ticks, tickHz)
	}

	return zero, one, nil
}

func withinTolerance(actual, nominal time.Duration) bool {
	diff := actual - nominal
	if diff < 0 {
		diff = -diff
	}
	return diff <= Tolerance
}
