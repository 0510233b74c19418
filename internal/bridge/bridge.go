package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/fault"
	"github.com/compute-blade-community/pixelbridge/pkg/framesource"
	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"go.uber.org/zap"
)

// Phase is a named step of the transmission loop.
type Phase int

const (
	PhaseAcquire Phase = iota
	PhaseEncode
	PhaseFrame
	PhaseTransmit
	PhaseIdle
)

func (p Phase) String() string {
	switch p {
	case PhaseAcquire:
		return "acquire"
	case PhaseEncode:
		return "encode"
	case PhaseFrame:
		return "frame"
	case PhaseTransmit:
		return "transmit"
	case PhaseIdle:
		return "idle"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// FaultError is an unrecoverable failure of the loop. The loop must not be
// stepped again after returning one.
type FaultError struct {
	Phase Phase
	Err   error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// Bridge moves color frames from a frame source to a pulse transmitter.
//
// The color frame and the pulse buffer are allocated once. While a frame is
// in flight the transmitter owns the pulse buffer and the bridge holds nil in
// its place until the transmitter hands it back.
type Bridge struct {
	source  framesource.Source
	tx      transmitter.Transmitter
	enc     *ws281x.Encoder
	leds    int
	idleGap time.Duration
	sleep   func(ctx context.Context, d time.Duration) error

	cycle   []phaseStep
	frame   ws281x.Frame
	buf     *ws281x.PulseBuffer
	pending *transmitter.Pending
	faulted error
}

type phaseStep struct {
	phase Phase
	fn    func(context.Context) error
}

func New(options ...Option) (*Bridge, error) {
	b := &Bridge{
		sleep: sleepContext,
	}

	for _, option := range options {
		option(b)
	}

	switch {
	case b.source == nil:
		return nil, errors.New("bridge needs a frame source")
	case b.tx == nil:
		return nil, errors.New("bridge needs a transmitter")
	case b.enc == nil:
		return nil, errors.New("bridge needs an encoder")
	case b.leds < 1:
		return nil, fmt.Errorf("invalid LED count %d", b.leds)
	case b.idleGap < 0:
		return nil, fmt.Errorf("invalid idle gap %s", b.idleGap)
	}

	b.frame = ws281x.NewFrame(b.leds)
	b.buf = ws281x.NewPulseBuffer(b.leds)
	b.cycle = []phaseStep{
		{PhaseAcquire, b.acquire},
		{PhaseEncode, b.encode},
		{PhaseFrame, b.terminate},
		{PhaseTransmit, b.transmit},
		{PhaseIdle, b.idle},
	}
	return b, nil
}

// RunAsync starts the loop in a separate goroutine and cancels the parent
// context with the fault if it stops for any reason other than cancellation.
// The returned channel is closed once the loop has returned.
func (b *Bridge) RunAsync(ctx context.Context, cancel context.CancelCauseFunc) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer fault.Recover()

		err := b.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.FromContext(ctx).Error("Pixel bridge stopped", zap.Error(err))
			cancel(err)
		}
	}()
	return done
}

// Run steps the loop until ctx is cancelled or a fault occurs. Cancellation
// returns ctx.Err(); every other error is a *FaultError.
func (b *Bridge) Run(ctx context.Context) error {
	log.FromContext(ctx).Info("Starting pixel bridge",
		zap.Int("leds", b.leds),
		zap.Stringer("bit_order", b.enc.Order()),
		zap.Duration("idle_gap", b.idleGap),
	)

	for {
		if err := b.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one cycle of the loop: acquire, encode, frame, transmit, idle.
func (b *Bridge) Step(ctx context.Context) error {
	if b.faulted != nil {
		return b.faulted
	}

	for _, step := range b.cycle {
		if err := b.runPhase(ctx, step.phase, step.fn); err != nil {
			return err
		}
	}

	countFrame()
	return nil
}

func (b *Bridge) runPhase(ctx context.Context, phase Phase, fn func(context.Context) error) error {
	log.FromContext(ctx).Debug("Entering phase", zap.Stringer("phase", phase))

	start := time.Now()
	err := fn(ctx)
	observePhase(phase, time.Since(start))

	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}

	countFault(phase)
	b.faulted = &FaultError{Phase: phase, Err: err}
	return b.faulted
}

func (b *Bridge) acquire(ctx context.Context) error {
	if err := b.reclaim(ctx); err != nil {
		return err
	}
	return b.source.ReadFrame(ctx, b.frame)
}

func (b *Bridge) encode(context.Context) error {
	return b.enc.EncodeData(b.frame, b.buf)
}

func (b *Bridge) terminate(context.Context) error {
	b.buf.Terminate()
	return nil
}

func (b *Bridge) transmit(ctx context.Context) error {
	buf := b.buf
	b.buf = nil

	pending, err := b.tx.Start(ctx, buf)
	if err != nil {
		b.buf = buf
		return err
	}
	b.pending = pending

	return b.reclaim(ctx)
}

func (b *Bridge) idle(ctx context.Context) error {
	return b.sleep(ctx, b.idleGap)
}

// reclaim waits for the in-flight frame, if any, and takes the pulse buffer
// back.
func (b *Bridge) reclaim(ctx context.Context) error {
	if b.buf != nil {
		return nil
	}

	buf, err := b.pending.Wait(ctx)
	if buf == nil {
		return err
	}

	b.buf = buf
	b.pending = nil
	return err
}

// GracefulStop blanks the strip and releases the transmitter and source. It
// must only be used once Run has returned. After a fault the strip is left as
// it is.
func (b *Bridge) GracefulStop(ctx context.Context) error {
	var errs []error

	if b.faulted == nil {
		log.FromContext(ctx).Info("Exiting, turning the strip off")
		if err := b.Blank(ctx); err != nil {
			log.FromContext(ctx).Error("Failed to turn the strip off", zap.Error(err))
			errs = append(errs, err)
		}
	}

	errs = append(errs, b.tx.Close())
	if c, ok := b.source.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Blank transmits an all-zero frame and waits for it to complete.
func (b *Bridge) Blank(ctx context.Context) error {
	if err := b.reclaim(ctx); err != nil {
		return err
	}

	clear(b.frame)
	if err := b.enc.EncodeFrame(b.frame, b.buf); err != nil {
		return err
	}
	return b.transmit(ctx)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
