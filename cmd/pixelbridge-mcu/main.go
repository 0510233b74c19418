//go:build tinygo

// pixelbridge-mcu runs the demo pattern on a microcontroller, driving the
// strip from a single data pin. Faults are reported on the board's default
// serial port.
package main

import (
	"context"
	"machine"

	"github.com/compute-blade-community/pixelbridge/internal/standalone"
	"github.com/compute-blade-community/pixelbridge/pkg/fault"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
)

// dataPin carries the strip data line. Boards without an on-board NeoPixel
// header need a different pin here.
var dataPin = machine.NEOPIXEL

func main() {
	fault.Install(machine.Serial)
	defer fault.Recover()

	ctx := context.Background()
	opts := standalone.DefaultOptions()

	enc, err := standalone.Encoder()
	if err != nil {
		fault.Halt(ctx, err)
	}

	b, err := standalone.New(opts, enc, transmitter.NewMCU(dataPin, enc, opts.Latch))
	if err != nil {
		fault.Halt(ctx, err)
	}

	fault.Halt(ctx, b.Run(ctx))
}
