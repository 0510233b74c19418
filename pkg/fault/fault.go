// Package fault is the terminal failure path of the process.
//
// The hook owns its own diagnostic output, opened independently of the
// logger and of any hardware handle, so that a fault raised while those are
// broken or held elsewhere can still be reported. It is only used once the
// process has decided to stop.
package fault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"github.com/sierrasoftworks/humane-errors-go"
	"go.uber.org/zap"
)

const (
	ExitFault = 1
	ExitPanic = 2
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr

	exit = os.Exit
)

// ReplaceExit makes f the function used to terminate the process and returns
// a func restoring the previous one.
func ReplaceExit(f func(int)) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := exit
	exit = f
	return func() { ReplaceExit(prev) }
}

func terminate(code int) {
	mu.Lock()
	f := exit
	mu.Unlock()
	f(code)
}

// Install makes w the diagnostic output of the fault hook. A nil w restores
// standard error.
func Install(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
}

// OpenDiagnostic opens path for appending diagnostics. An empty path or "-"
// selects standard error.
func OpenDiagnostic(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open fault diagnostic output %q: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Halt reports err and terminates the process. It never returns.
func Halt(ctx context.Context, err error) {
	log.FromContext(ctx).Error("fatal fault, halting", humaneFields(err)...)
	_ = zap.L().Sync()

	write(Diagnostic(err, ""))
	terminate(ExitFault)
}

// Recover reports a panic with the location it was raised at and terminates
// the process. It must be deferred directly, at the top of every goroutine
// that should report its panics.
func Recover() {
	r := recover()
	if r == nil {
		return
	}

	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}

	write(Diagnostic(fmt.Errorf("panic: %w", err), panicLocation()))
	terminate(ExitPanic)
}

// Diagnostic renders the report written by Halt and Recover.
func Diagnostic(err error, location string) string {
	var sb strings.Builder
	sb.WriteString("pixelbridge: fatal: ")
	sb.WriteString(err.Error())
	sb.WriteByte('\n')
	if location != "" {
		sb.WriteString("  at ")
		sb.WriteString(location)
		sb.WriteByte('\n')
	}

	var herr humane.Error
	if errors.As(err, &herr) {
		for _, advice := range herr.Advice() {
			sb.WriteString("  advice: ")
			sb.WriteString(advice)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func write(msg string) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = io.WriteString(out, msg)
}

func humaneFields(err error) []zap.Field {
	var herr humane.Error
	if errors.As(err, &herr) {
		return []zap.Field{zap.Error(err), zap.Strings("advice", herr.Advice())}
	}
	return []zap.Field{zap.Error(err)}
}

// panicLocation returns the first frame outside the runtime above the
// deferred Recover call.
func panicLocation() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			return fmt.Sprintf("%s:%d (%s)", frame.File, frame.Line, frame.Function)
		}
		if !more {
			return "unknown location"
		}
	}
}
