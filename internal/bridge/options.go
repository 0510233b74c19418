package bridge

import (
	"context"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/framesource"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

type Option func(*Bridge)

func WithSource(source framesource.Source) Option {
	return func(b *Bridge) {
		b.source = source
	}
}

func WithTransmitter(tx transmitter.Transmitter) Option {
	return func(b *Bridge) {
		b.tx = tx
	}
}

func WithEncoder(enc *ws281x.Encoder) Option {
	return func(b *Bridge) {
		b.enc = enc
	}
}

func WithLEDs(leds int) Option {
	return func(b *Bridge) {
		b.leds = leds
	}
}

// WithIdleGap sets the minimum pause after every transmission, latch time
// included.
func WithIdleGap(d time.Duration) Option {
	return func(b *Bridge) {
		b.idleGap = d
	}
}

// WithSleep replaces the idle wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Bridge) {
		b.sleep = sleep
	}
}
