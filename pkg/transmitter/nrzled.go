//go:build !tinygo

package transmitter

import (
	"context"
	"fmt"
	"io"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

type pixelWriter interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// NRZ hands frames to the periph.io nrzled driver, which does its own SPI
// encoding at three SPI bits per data bit.
type NRZ struct {
	channel

	dev    pixelWriter
	closer io.Closer
	enc    *ws281x.Encoder
	wire   []byte
}

// OpenNRZ opens the SPI port dev (empty for the first one found) for leds LEDs.
func OpenNRZ(dev string, leds int, enc *ws281x.Encoder) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise periph host drivers: %w", err)
	}

	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", dev, err)
	}

	d, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: leds,
		Channels:  ws281x.BytesPerLED,
		Freq:      800 * physic.KiloHertz,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to create nrzled device on %q: %w", dev, err)
	}

	return newNRZ(d, port, enc), nil
}

func newNRZ(dev pixelWriter, closer io.Closer, enc *ws281x.Encoder) *NRZ {
	return &NRZ{
		channel: channel{driver: "nrzled"},
		dev:     dev,
		closer:  closer,
		enc:     enc,
	}
}

func (n *NRZ) Start(_ context.Context, buf *ws281x.PulseBuffer) (*Pending, error) {
	return n.start(buf, n.emit)
}

func (n *NRZ) emit(symbols []ws281x.Symbol) error {
	var err error
	n.wire, err = appendWireBytes(n.wire[:0], n.enc, symbols)
	if err != nil {
		return err
	}

	// nrzled takes RGB pixels and sends them as GRB: swap the first two wire
	// bytes of every LED so the strip receives them unchanged.
	for i := 0; i+1 < len(n.wire); i += ws281x.BytesPerLED {
		n.wire[i], n.wire[i+1] = n.wire[i+1], n.wire[i]
	}

	if _, err := n.dev.Write(n.wire); err != nil {
		return fmt.Errorf("nrzled write failed: %w", err)
	}
	return nil
}

func (n *NRZ) Close() error {
	n.close()
	if err := n.dev.Halt(); err != nil {
		return err
	}
	if n.closer != nil {
		return n.closer.Close()
	}
	return nil
}
