package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/compute-blade-community/pixelbridge/pkg/bridgeconfig"
	"github.com/compute-blade-community/pixelbridge/pkg/fault"
	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"github.com/sierrasoftworks/humane-errors-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configFile string

	v   = viper.New()
	cfg bridgeconfig.Config
)

func init() {
	bridgeconfig.SetDefaults(v)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to the configuration file (default: pixelbridge.yaml in /etc/pixelbridge or the working directory)")
	flags.IntP("leds", "n", 1, "Number of LEDs on the strip")
	flags.String("source", bridgeconfig.SourceSerial, "Frame source: serial or pattern")
	flags.String("device", "/dev/ttyAMA0", "Serial device frames are read from")
	flags.String("driver", "auto", "Transmitter driver: auto, rp1, spi, nrzled or sim")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.Bool("log-development", false, "Human readable log output")

	if err := bindFlags(flags, map[string]string{
		"leds":               "leds",
		"source.kind":        "source",
		"source.device":      "device",
		"transmitter.driver": "driver",
		"log.level":          "log-level",
		"log.development":    "log-development",
	}); err != nil {
		panic(err)
	}
}

// bindFlags binds configuration keys to the named flags.
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) error {
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("flag --%s for %s is not defined", name, key)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:           "pixelbridge",
	Short:         "pixelbridge drives WS2812 LED strips from a serial byte stream or an internal pattern",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		logger, err := log.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return humane.Wrap(err, "failed to create logger", "check log.level")
		}
		zap.ReplaceGlobals(logger)

		diagnostic, err := fault.OpenDiagnostic(cfg.Fault.Diagnostic)
		if err != nil {
			return humane.Wrap(err, "failed to open the fault diagnostic output", "check fault.diagnostic, use - for standard error")
		}
		fault.Install(diagnostic)

		ctx, cancelCtx := context.WithCancelCause(log.IntoContext(cmd.Context(), logger))

		// setup signal handler channels
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		go func() {
			select {
			// Wait for context cancel
			case <-ctx.Done():

			// Wait for signal
			case sig := <-sigs:
				switch sig {
				case syscall.SIGTERM:
					fallthrough
				case syscall.SIGINT:
					fallthrough
				case syscall.SIGQUIT:
					// On terminate signal, cancel context causing the program to terminate
					log.FromContext(ctx).Info("Received signal, shutting down", zap.String("signal", sig.String()))
					cancelCtx(context.Canceled)

				default:
					log.FromContext(ctx).Warn("Received unknown signal", zap.String("signal", sig.String()))
				}
			}
		}()

		cmd.SetContext(ctx)
		return nil
	},
}

func loadConfig() error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("pixelbridge")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/pixelbridge")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PIXELBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return humane.Wrap(err, fmt.Sprintf("failed to read configuration file %s", v.ConfigFileUsed()),
				"check that the file exists and is valid YAML",
			)
		}
	}

	var herr humane.Error
	cfg, herr = bridgeconfig.Load(v)
	if herr != nil {
		return herr
	}
	return nil
}
