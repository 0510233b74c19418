//go:build !tinygo

package transmitter

import (
	"context"
	"fmt"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/hal"
	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"github.com/sierrasoftworks/humane-errors-go"
	"go.uber.org/zap"
)

const (
	DriverAuto = "auto"
	DriverRP1  = "rp1"
	DriverSPI  = "spi"
	DriverSim  = "sim"
	DriverNRZ  = "nrzled"
)

type Options struct {
	Driver     string        `mapstructure:"driver" yaml:"driver"`
	SPIDevice  string        `mapstructure:"spi-device" yaml:"spi-device"`
	SPISpeedHz int64         `mapstructure:"spi-speed-hz" yaml:"spi-speed-hz"`
	Latch      time.Duration `mapstructure:"latch" yaml:"latch"`
}

// Open creates the transmitter for a strip of leds LEDs. The auto driver uses
// the RP1 serializer where the SoC has one and falls back to SPI everywhere
// else.
func Open(ctx context.Context, opts Options, enc *ws281x.Encoder, leds int) (Transmitter, humane.Error) {
	driver := opts.Driver
	if driver == "" || driver == DriverAuto {
		driver = DriverSPI
		if platform, err := hal.DetectPlatform(ctx); err != nil {
			log.FromContext(ctx).WithError(err).Warn("platform detection failed, using SPI")
		} else if platform.HasRP1() {
			driver = DriverRP1
		}
	}

	log.FromContext(ctx).Info("opening transmitter", zap.String("driver", driver))

	switch driver {
	case DriverRP1:
		tx, err := openRP1(ctx, enc, opts.Latch)
		if err != nil {
			return nil, humane.Wrap(err, "failed to open the RP1 serializer",
				"the RP1 driver needs root privileges to map /dev/mem",
				"make sure nothing else drives GPIO 18, for example a pwm overlay in config.txt",
			)
		}
		return tx, nil

	case DriverSPI:
		speed := opts.SPISpeedHz
		if speed == 0 {
			speed = DefaultSPISpeedHz
		}
		tx, err := OpenSPI(opts.SPIDevice, speed, enc, opts.Latch)
		if err != nil {
			return nil, humane.Wrap(err, "failed to open the SPI transmitter",
				"enable the SPI interface, for example with dtparam=spi=on",
				"check that the user can access /dev/spidev*",
			)
		}
		return tx, nil

	case DriverNRZ:
		tx, err := OpenNRZ(opts.SPIDevice, leds, enc)
		if err != nil {
			return nil, humane.Wrap(err, "failed to open the nrzled transmitter",
				"enable the SPI interface, for example with dtparam=spi=on",
				"check that the user can access /dev/spidev*",
			)
		}
		return tx, nil

	case DriverSim:
		return NewSimulated(enc.TickRate()), nil

	default:
		return nil, humane.New(fmt.Sprintf("unknown transmitter driver %q", driver),
			"use one of auto, rp1, spi, nrzled or sim",
		)
	}
}
