// Package transmitter emits pulse buffers on hardware. Transmission is
// asynchronous: Start hands the buffer to the hardware and the returned
// Pending hands it back once emission has finished.
package transmitter

import (
	"context"
	"errors"
	"sync"

	"github.com/compute-blade-community/pixelbridge/pkg/fault"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

var (
	// ErrBusy is returned by Start while a previous transmission is still in flight.
	ErrBusy = errors.New("transmitter busy: previous frame still in flight")

	ErrClosed = errors.New("transmitter closed")
)

// Transmitter is an asynchronous, hardware-timed pulse output channel.
type Transmitter interface {
	// Start begins emitting buf. Ownership of buf passes to the transmitter:
	// the caller must not read or write it until Pending.Wait returns it.
	Start(ctx context.Context, buf *ws281x.PulseBuffer) (*Pending, error)

	// Close releases the underlying hardware.
	Close() error
}

// Pending is an in-flight transmission.
type Pending struct {
	done chan struct{}
	buf  *ws281x.PulseBuffer
	err  error
}

// Done is closed once the hardware no longer reads the buffer.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the transmission completes and returns ownership of the
// buffer together with the hardware result. If ctx ends first, Wait returns a
// nil buffer: the hardware still owns it.
func (p *Pending) Wait(ctx context.Context) (*ws281x.PulseBuffer, error) {
	select {
	case <-p.done:
		return p.buf, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// channel serialises transmissions for a driver. Only one buffer is ever in
// flight; emit runs on its own goroutine.
type channel struct {
	driver string

	mu       sync.Mutex
	inflight *Pending
	closed   bool
}

func (c *channel) start(buf *ws281x.PulseBuffer, emit func(symbols []ws281x.Symbol) error) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClosed
	}
	if c.inflight != nil {
		select {
		case <-c.inflight.done:
		default:
			return nil, ErrBusy
		}
	}

	p := &Pending{done: make(chan struct{}), buf: buf}
	c.inflight = p

	go func() {
		defer close(p.done)
		defer fault.Recover()

		p.err = emit(buf.Symbols())
		countSymbols(c.driver, buf.Len())
	}()

	return p, nil
}

// appendWireBytes folds data symbols back into the bytes they carry on the
// wire, first symbol in the MSB. The trailing reset symbol is skipped.
func appendWireBytes(dst []byte, enc *ws281x.Encoder, symbols []ws281x.Symbol) ([]byte, error) {
	data := symbols[:len(symbols)-1]
	for i := 0; i+ws281x.SymbolsPerByte <= len(data); i += ws281x.SymbolsPerByte {
		var b byte
		for _, s := range data[i : i+ws281x.SymbolsPerByte] {
			bit, err := enc.Bit(s)
			if err != nil {
				return dst, err
			}
			b = b<<1 | bit
		}
		dst = append(dst, b)
	}
	return dst, nil
}

// close marks the channel closed and waits for an in-flight transmission.
func (c *channel) close() {
	c.mu.Lock()
	c.closed = true
	inflight := c.inflight
	c.mu.Unlock()

	if inflight != nil {
		<-inflight.done
	}
}
