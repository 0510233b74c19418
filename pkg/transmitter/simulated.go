package transmitter

import (
	"context"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

// Simulated takes as long as the real wire would but drives no hardware. It is
// used for dry runs on machines without a supported output.
type Simulated struct {
	channel
	tickHz uint32
}

func NewSimulated(tickHz uint32) *Simulated {
	return &Simulated{
		channel: channel{driver: "sim"},
		tickHz:  tickHz,
	}
}

func (s *Simulated) Start(_ context.Context, buf *ws281x.PulseBuffer) (*Pending, error) {
	wire := buf.Duration(s.tickHz)
	return s.start(buf, func([]ws281x.Symbol) error {
		time.Sleep(wire)
		return nil
	})
}

func (s *Simulated) Close() error {
	s.close()
	return nil
}
