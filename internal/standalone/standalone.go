// Package standalone assembles the bridge for targets without a host link or
// a configuration file. The demo pattern drives the strip with the datasheet
// timing.
package standalone

import (
	"time"

	"github.com/compute-blade-community/pixelbridge/internal/bridge"
	"github.com/compute-blade-community/pixelbridge/pkg/framesource"
	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

type Options struct {
	LEDs        int
	Start       led.Color
	Order       led.ChannelOrder
	Latch       time.Duration
	FramePeriod time.Duration
}

// DefaultOptions drives a single GRB LED starting at full green, updated
// every 500ms.
func DefaultOptions() Options {
	return Options{
		LEDs:        1,
		Start:       led.Color{Green: 255},
		Order:       led.OrderGRB,
		Latch:       50 * time.Microsecond,
		FramePeriod: 500 * time.Millisecond,
	}
}

// Encoder returns the MSB first encoder at the default tick rate.
func Encoder() (*ws281x.Encoder, error) {
	return ws281x.NewEncoder(ws281x.DefaultTiming, ws281x.DefaultTickRate, ws281x.MSBFirst)
}

// New builds a bridge feeding the pattern source into tx.
func New(opts Options, enc *ws281x.Encoder, tx transmitter.Transmitter, extra ...bridge.Option) (*bridge.Bridge, error) {
	options := append([]bridge.Option{
		bridge.WithSource(framesource.NewPattern(opts.LEDs, opts.Start, opts.Order)),
		bridge.WithTransmitter(tx),
		bridge.WithEncoder(enc),
		bridge.WithLEDs(opts.LEDs),
		bridge.WithIdleGap(opts.Latch + opts.FramePeriod),
	}, extra...)

	return bridge.New(options...)
}
