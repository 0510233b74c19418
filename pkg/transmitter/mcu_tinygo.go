//go:build tinygo

package transmitter

import (
	"context"
	"machine"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"tinygo.org/x/drivers/ws2812"
)

// MCU bit-bangs pulse buffers on a microcontroller pin. The ws2812 driver
// generates its own cycle-counted timing, so symbols are folded back into wire
// bytes before they are written.
type MCU struct {
	channel

	dev   ws2812.Device
	enc   *ws281x.Encoder
	latch time.Duration
	wire  []byte
}

// NewMCU configures pin as an output and drives the strip from it.
func NewMCU(pin machine.Pin, enc *ws281x.Encoder, latch time.Duration) *MCU {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &MCU{
		channel: channel{driver: "mcu"},
		dev:     ws2812.New(pin),
		enc:     enc,
		latch:   latch,
	}
}

func (m *MCU) Start(_ context.Context, buf *ws281x.PulseBuffer) (*Pending, error) {
	return m.start(buf, m.emit)
}

func (m *MCU) emit(symbols []ws281x.Symbol) error {
	var err error
	m.wire, err = appendWireBytes(m.wire[:0], m.enc, symbols)
	if err != nil {
		return err
	}

	// the driver shifts every byte out MSB first
	for _, b := range m.wire {
		if err := m.dev.WriteByte(b); err != nil {
			return err
		}
	}
	time.Sleep(m.latch)
	return nil
}

func (m *MCU) Close() error {
	m.close()
	return nil
}
