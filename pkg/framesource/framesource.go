// Package framesource provides the color frames the bridge transmits: either
// read from a host over a serial byte stream, or generated internally.
package framesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

// ErrShortRead is returned when the stream ends or stalls part way through a
// frame.
var ErrShortRead = errors.New("short frame read")

// Source fills a frame with the next color data.
type Source interface {
	// ReadFrame overwrites frame with the next frame. It blocks until a full
	// frame is available; an error means no valid frame was produced.
	ReadFrame(ctx context.Context, frame ws281x.Frame) error
}

// Port is the minimal interface needed from a byte stream. It lets tests run
// without serial hardware.
type Port interface {
	io.Reader
	io.Closer
}

// TimeoutPort is implemented by ports whose reads return (0, nil) once a read
// timeout elapses. go.bug.st/serial ports satisfy it.
type TimeoutPort interface {
	Port
	SetReadTimeout(timeout time.Duration) error
}

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultFrameTimeout = time.Second
	idleBackoff         = time.Millisecond
)

// Serial reads raw frames from a byte stream. Frames have no header, length
// or checksum: every len(frame) bytes are one frame.
type Serial struct {
	port         Port
	timed        bool
	pollInterval time.Duration
	frameTimeout time.Duration
}

type SerialOption func(*Serial)

// WithPollInterval sets how often a blocked read wakes up to check for
// cancellation.
func WithPollInterval(d time.Duration) SerialOption {
	return func(s *Serial) {
		s.pollInterval = d
	}
}

// WithFrameTimeout bounds the time between the first and the last byte of a
// frame. Zero disables the bound.
func WithFrameTimeout(d time.Duration) SerialOption {
	return func(s *Serial) {
		s.frameTimeout = d
	}
}

// NewSerial wraps port as a frame source.
func NewSerial(port Port, options ...SerialOption) (*Serial, error) {
	s := &Serial{
		port:         port,
		pollInterval: defaultPollInterval,
		frameTimeout: defaultFrameTimeout,
	}

	for _, option := range options {
		option(s)
	}

	if tp, ok := port.(TimeoutPort); ok {
		if err := tp.SetReadTimeout(s.pollInterval); err != nil {
			return nil, fmt.Errorf("failed to set serial read timeout: %w", err)
		}
		s.timed = true
	}

	return s, nil
}

// ReadFrame reads exactly len(frame) bytes. Waiting for the first byte is
// unbounded; once a frame has started, the remainder must arrive within the
// frame timeout.
func (s *Serial) ReadFrame(ctx context.Context, frame ws281x.Frame) error {
	var (
		n        int
		deadline time.Time
	)

	for n < len(frame) {
		if err := ctx.Err(); err != nil {
			return err
		}

		m, err := s.port.Read(frame[n:])
		n += m
		if n > 0 && deadline.IsZero() && s.frameTimeout > 0 {
			deadline = time.Now().Add(s.frameTimeout)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if n == 0 {
					return fmt.Errorf("serial stream closed: %w", err)
				}
				return fmt.Errorf("%w: got %d of %d bytes: %w", ErrShortRead, n, len(frame), io.ErrUnexpectedEOF)
			}
			return fmt.Errorf("serial read failed after %d of %d bytes: %w", n, len(frame), err)
		}

		if n < len(frame) && !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w: got %d of %d bytes within %s", ErrShortRead, n, len(frame), s.frameTimeout)
		}

		if m == 0 && !s.timed {
			time.Sleep(idleBackoff)
		}
	}

	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}

// Pattern is an internal demo source: every LED starts at a fixed color and
// the last wire byte of each LED increments (wrapping) on every frame.
type Pattern struct {
	state ws281x.Frame
}

// NewPattern returns a pattern for leds LEDs starting at start.
func NewPattern(leds int, start led.Color, order led.ChannelOrder) *Pattern {
	state := ws281x.NewFrame(leds)
	for i := 0; i < leds; i++ {
		state.SetPixel(i, start, order)
	}
	return &Pattern{state: state}
}

func (p *Pattern) ReadFrame(ctx context.Context, frame ws281x.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(frame) != len(p.state) {
		return fmt.Errorf("%w: pattern has %d bytes, frame has %d", ws281x.ErrFrameLength, len(p.state), len(frame))
	}

	copy(frame, p.state)
	for i := ws281x.BytesPerLED - 1; i < len(p.state); i += ws281x.BytesPerLED {
		p.state[i]++
	}
	return nil
}
