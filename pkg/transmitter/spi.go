//go:build !tinygo

package transmitter

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DefaultSPISpeedHz gives one SPI bit per third of a WS2812 bit period: a 0
// becomes 100 and a 1 becomes 110 on MOSI.
const DefaultSPISpeedHz = 2_400_000

type spiTx interface {
	Tx(w, r []byte) error
}

// SPI emits pulse buffers on the MOSI line of a SPI port by rasterising every
// symbol at the SPI clock rate.
type SPI struct {
	channel

	conn       spiTx
	closer     io.Closer
	raster     *ws281x.Rasterizer
	resetBytes int
	maxTx      int
	stream     []byte
}

// OpenSPI opens the SPI port dev (empty for the first one found) at speedHz.
func OpenSPI(dev string, speedHz int64, enc *ws281x.Encoder, latch time.Duration) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise periph host drivers: %w", err)
	}

	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", dev, err)
	}

	c, err := port.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %q at %d Hz: %w", dev, speedHz, err)
	}

	s, err := newSPI(c, port, speedHz, enc, latch)
	if err != nil {
		port.Close()
		return nil, err
	}

	if l, ok := c.(conn.Limits); ok {
		s.maxTx = l.MaxTxSize()
	}

	return s, nil
}

func newSPI(c spiTx, closer io.Closer, speedHz int64, enc *ws281x.Encoder, latch time.Duration) (*SPI, error) {
	if speedHz <= 0 {
		return nil, fmt.Errorf("invalid SPI speed %d Hz", speedHz)
	}

	raster, err := ws281x.NewRasterizer(enc.TickRate(), uint64(speedHz))
	if err != nil {
		return nil, err
	}
	if err := raster.Check(enc); err != nil {
		return nil, fmt.Errorf("SPI speed %d Hz cannot reproduce the pulse timing: %w", speedHz, err)
	}

	bitsPerLatch := (uint64(latch)*uint64(speedHz) + uint64(time.Second) - 1) / uint64(time.Second)

	return &SPI{
		channel:    channel{driver: "spi"},
		conn:       c,
		closer:     closer,
		raster:     raster,
		resetBytes: int((bitsPerLatch + 7) / 8),
	}, nil
}

func (s *SPI) Start(_ context.Context, buf *ws281x.PulseBuffer) (*Pending, error) {
	return s.start(buf, s.emit)
}

func (s *SPI) emit(symbols []ws281x.Symbol) error {
	// Leading low padding latches anything left on the line from before.
	s.stream = s.stream[:0]
	for i := 0; i < s.resetBytes; i++ {
		s.stream = append(s.stream, 0)
	}
	s.stream = s.raster.AppendBytes(s.stream, symbols)
	s.stream = append(s.stream, 0)

	if s.maxTx > 0 && len(s.stream) > s.maxTx {
		return fmt.Errorf("SPI transfer of %d bytes exceeds the port limit of %d bytes", len(s.stream), s.maxTx)
	}

	if err := s.conn.Tx(s.stream, nil); err != nil {
		return fmt.Errorf("SPI transfer failed: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.close()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
