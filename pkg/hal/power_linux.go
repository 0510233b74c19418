//go:build linux && !tinygo

package hal

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
	"go.uber.org/zap"
)

type powerSwitch struct {
	chip *gpiod.Chip
	line *gpiod.Line
}

// EnablePower drives the strip supply enable line and keeps it asserted until
// the returned Closer is closed. pin accepts a line offset or a Raspberry Pi
// name such as "GPIO21".
func EnablePower(ctx context.Context, chipName, pin string, activeLow bool) (io.Closer, error) {
	offset, err := rpi.Pin(pin)
	if err != nil {
		return nil, fmt.Errorf("invalid power enable pin %q: %w", pin, err)
	}

	chip, err := gpiod.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", chipName, err)
	}

	opts := []gpiod.LineReqOption{gpiod.AsOutput(1)}
	if activeLow {
		opts = append(opts, gpiod.AsActiveLow)
	}

	line, err := chip.RequestLine(offset, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("failed to request power enable line %d on %s: %w", offset, chipName, err)
	}

	log.FromContext(ctx).Info("strip power enabled", zap.String("chip", chipName), zap.Int("line", offset), zap.Bool("active_low", activeLow))

	return &powerSwitch{chip: chip, line: line}, nil
}

func (p *powerSwitch) Close() error {
	return errors.Join(
		p.line.SetValue(0),
		p.line.Close(),
		p.chip.Close(),
	)
}
