package bridgeconfig

import (
	"fmt"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/framesource"
	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"github.com/sierrasoftworks/humane-errors-go"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	SourceSerial  = "serial"
	SourcePattern = "pattern"
)

type Config struct {
	LEDs         int              `yaml:"leds" mapstructure:"leds"`
	ChannelOrder led.ChannelOrder `yaml:"channel-order" mapstructure:"channel-order"`
	BitOrder     string           `yaml:"bit-order" mapstructure:"bit-order"`
	TickRate     uint32           `yaml:"tick-rate" mapstructure:"tick-rate"`
	Timing       ws281x.Timing    `yaml:"timing" mapstructure:"timing"`
	FramePeriod  time.Duration    `yaml:"frame-period" mapstructure:"frame-period"`

	Source      Source              `yaml:"source" mapstructure:"source"`
	Transmitter transmitter.Options `yaml:"transmitter" mapstructure:"transmitter"`
	Power       Power               `yaml:"power" mapstructure:"power"`
	Metrics     Metrics             `yaml:"metrics" mapstructure:"metrics"`
	Log         Log                 `yaml:"log" mapstructure:"log"`
	Fault       Fault               `yaml:"fault" mapstructure:"fault"`
}

type Source struct {
	Kind         string                  `yaml:"kind" mapstructure:"kind"`
	Device       string                  `yaml:"device,omitempty" mapstructure:"device"`
	Port         framesource.PortOptions `yaml:"port" mapstructure:"port"`
	FrameTimeout time.Duration           `yaml:"frame-timeout" mapstructure:"frame-timeout"`
	PatternStart led.Color               `yaml:"pattern-start" mapstructure:"pattern-start"`
}

// Power is the optional GPIO line switching the strip supply.
type Power struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Chip      string `yaml:"chip" mapstructure:"chip"`
	Line      string `yaml:"line" mapstructure:"line"`
	ActiveLow bool   `yaml:"active-low" mapstructure:"active-low"`
}

type Metrics struct {
	Listen string `yaml:"listen,omitempty" mapstructure:"listen"`
}

type Log struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

type Fault struct {
	Diagnostic string `yaml:"diagnostic" mapstructure:"diagnostic"`
}

// SetDefaults registers the default configuration on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("leds", 1)
	v.SetDefault("channel-order", string(led.OrderGRB))
	v.SetDefault("bit-order", ws281x.MSBFirst.String())
	v.SetDefault("tick-rate", ws281x.DefaultTickRate)
	v.SetDefault("timing.t0h", ws281x.DefaultTiming.T0H.String())
	v.SetDefault("timing.t0l", ws281x.DefaultTiming.T0L.String())
	v.SetDefault("timing.t1h", ws281x.DefaultTiming.T1H.String())
	v.SetDefault("timing.t1l", ws281x.DefaultTiming.T1L.String())
	v.SetDefault("frame-period", "500ms")

	v.SetDefault("source.kind", SourceSerial)
	v.SetDefault("source.device", "/dev/ttyAMA0")
	v.SetDefault("source.port.baud-rate", 115200)
	v.SetDefault("source.port.data-bits", 8)
	v.SetDefault("source.port.stop-bits", 1)
	v.SetDefault("source.port.parity", "N")
	v.SetDefault("source.frame-timeout", "1s")
	v.SetDefault("source.pattern-start.red", 0)
	v.SetDefault("source.pattern-start.green", 255)
	v.SetDefault("source.pattern-start.blue", 0)

	v.SetDefault("transmitter.driver", transmitter.DriverAuto)
	v.SetDefault("transmitter.spi-device", "")
	v.SetDefault("transmitter.spi-speed-hz", transmitter.DefaultSPISpeedHz)
	v.SetDefault("transmitter.latch", "50us")

	v.SetDefault("power.enabled", false)
	v.SetDefault("power.chip", "gpiochip0")
	v.SetDefault("power.line", "GPIO21")
	v.SetDefault("power.active-low", false)

	v.SetDefault("metrics.listen", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("fault.diagnostic", "-")
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, humane.Error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, humane.Wrap(err, "failed to parse configuration",
			"durations are written like 50us, 500ms or 1s",
			"check the configuration file and PIXELBRIDGE_ environment variables for typos",
		)
	}

	order, err := led.ParseChannelOrder(string(cfg.ChannelOrder))
	if err != nil {
		return cfg, humane.Wrap(err, "invalid channel-order", "use the order your LEDs expect on the wire, WS2812B strips use GRB")
	}
	cfg.ChannelOrder = order

	return cfg, cfg.Validate()
}

// Validate checks the configuration without touching any hardware.
func (c Config) Validate() humane.Error {
	if c.LEDs < 1 {
		return humane.New(fmt.Sprintf("invalid LED count %d", c.LEDs), "set leds to the number of LEDs on the strip, at least 1")
	}

	if _, err := c.Encoder(); err != nil {
		return err
	}

	if c.FramePeriod < 0 {
		return humane.New("frame-period must not be negative", "use 0 to update the strip as fast as frames arrive")
	}
	if c.Transmitter.Latch < 0 {
		return humane.New("transmitter.latch must not be negative", "WS2812B strips need at least 50us of low to latch")
	}

	switch c.Transmitter.Driver {
	case transmitter.DriverAuto, transmitter.DriverRP1, transmitter.DriverSPI, transmitter.DriverNRZ, transmitter.DriverSim:
	default:
		return humane.New(fmt.Sprintf("unknown transmitter driver %q", c.Transmitter.Driver), "use one of auto, rp1, spi, nrzled or sim")
	}

	switch c.Source.Kind {
	case SourceSerial:
		if c.Source.Device == "" {
			return humane.New("serial source needs a device", "set source.device, for example /dev/ttyAMA0 or /dev/ttyUSB0")
		}
		if _, err := c.Source.Port.Normalize(); err != nil {
			return humane.Wrap(err, "invalid serial port settings", "check source.port")
		}
		if c.Source.FrameTimeout < 0 {
			return humane.New("source.frame-timeout must not be negative", "use 0 to wait for the rest of a frame forever")
		}
	case SourcePattern:
	default:
		return humane.New(fmt.Sprintf("unknown source kind %q", c.Source.Kind), "use serial or pattern")
	}

	if c.Power.Enabled && (c.Power.Chip == "" || c.Power.Line == "") {
		return humane.New("power control needs a chip and a line", "set power.chip and power.line, or disable power control")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return humane.Wrap(err, "invalid log level", "use one of debug, info, warn or error")
	}

	return nil
}

// Encoder builds the symbol encoder for the configured timing.
func (c Config) Encoder() (*ws281x.Encoder, humane.Error) {
	order, err := ws281x.ParseBitOrder(c.BitOrder)
	if err != nil {
		return nil, humane.Wrap(err, "invalid bit-order", "WS2812 LEDs expect msb")
	}

	enc, err := ws281x.NewEncoder(c.Timing, c.TickRate, order)
	if err != nil {
		return nil, humane.Wrap(err, "pulse timing cannot be produced at the configured tick rate",
			"keep every half period within 150ns of the WS2812B datasheet",
			"raise tick-rate, 80000000 matches an undivided 80 MHz clock",
		)
	}
	return enc, nil
}

// IdleGap is the pause between the end of one transmission and the next frame.
func (c Config) IdleGap() time.Duration {
	return c.Transmitter.Latch + c.FramePeriod
}
