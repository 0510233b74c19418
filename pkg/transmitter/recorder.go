package transmitter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

// ErrBufferModified is reported by the Recorder when a buffer changed while it
// was owned by the transmitter.
var ErrBufferModified = errors.New("pulse buffer modified while in flight")

// Recorder is an in-memory transmitter. It keeps a copy of every emitted
// buffer and verifies that the buffer was left untouched during emission.
type Recorder struct {
	channel

	delay time.Duration
	err   error

	stateMu sync.Mutex
	starts  int
	frames  [][]ws281x.Symbol
}

type RecorderOption func(*Recorder)

// WithDelay makes every emission take d.
func WithDelay(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.delay = d
	}
}

// WithError makes every emission fail with err.
func WithError(err error) RecorderOption {
	return func(r *Recorder) {
		r.err = err
	}
}

func NewRecorder(options ...RecorderOption) *Recorder {
	r := &Recorder{channel: channel{driver: "recorder"}}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *Recorder) Start(_ context.Context, buf *ws281x.PulseBuffer) (*Pending, error) {
	r.stateMu.Lock()
	r.starts++
	r.stateMu.Unlock()

	return r.start(buf, r.emit)
}

func (r *Recorder) emit(symbols []ws281x.Symbol) error {
	snapshot := append([]ws281x.Symbol(nil), symbols...)

	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	for i := range snapshot {
		if snapshot[i] != symbols[i] {
			return ErrBufferModified
		}
	}

	r.stateMu.Lock()
	r.frames = append(r.frames, snapshot)
	r.stateMu.Unlock()

	return r.err
}

// Starts returns the number of Start calls, including failed ones.
func (r *Recorder) Starts() int {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.starts
}

// Frames returns copies of all emitted buffers in order.
func (r *Recorder) Frames() [][]ws281x.Symbol {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return append([][]ws281x.Symbol(nil), r.frames...)
}

func (r *Recorder) Close() error {
	r.close()
	return nil
}
