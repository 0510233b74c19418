package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/compute-blade-community/pixelbridge/internal/bridge"
	"github.com/compute-blade-community/pixelbridge/pkg/bridgeconfig"
	"github.com/compute-blade-community/pixelbridge/pkg/framesource"
	"github.com/compute-blade-community/pixelbridge/pkg/hal"
	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sierrasoftworks/humane-errors-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const stopTimeout = 5 * time.Second

func init() {
	rootCmd.AddCommand(cmdRun)
}

var cmdRun = &cobra.Command{
	Use:     "run",
	Short:   "Drive the LED strip from the configured frame source",
	Example: "pixelbridge run --leds 60 --device /dev/ttyACM0",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		enc, herr := cfg.Encoder()
		if herr != nil {
			return herr
		}

		if cfg.Power.Enabled {
			power, err := hal.EnablePower(ctx, cfg.Power.Chip, cfg.Power.Line, cfg.Power.ActiveLow)
			if err != nil {
				return humane.Wrap(err, "failed to enable strip power",
					"check power.chip and power.line",
					"the user needs read/write access to /dev/gpiochip*",
				)
			}
			defer func() {
				if err := power.Close(); err != nil {
					log.FromContext(ctx).Warn("Failed to switch strip power off", zap.Error(err))
				}
			}()
		}

		source, herr := openSource(ctx, cfg)
		if herr != nil {
			return herr
		}

		tx, herr := transmitter.Open(ctx, cfg.Transmitter, enc, cfg.LEDs)
		if herr != nil {
			closeSource(ctx, source)
			return herr
		}

		b, err := bridge.New(
			bridge.WithSource(source),
			bridge.WithTransmitter(tx),
			bridge.WithEncoder(enc),
			bridge.WithLEDs(cfg.LEDs),
			bridge.WithIdleGap(cfg.IdleGap()),
		)
		if err != nil {
			closeSource(ctx, source)
			return errors.Join(err, tx.Close())
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			return b.Run(groupCtx)
		})
		if cfg.Metrics.Listen != "" {
			group.Go(func() error {
				return serveMetrics(groupCtx, cfg.Metrics.Listen)
			})
		}
		runErr := group.Wait()

		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if err := b.GracefulStop(stopCtx); err != nil {
			log.FromContext(ctx).Warn("Failed to stop cleanly", zap.Error(err))
		}

		if errors.Is(runErr, context.Canceled) {
			return nil
		}
		return runErr
	},
}

func openSource(ctx context.Context, cfg bridgeconfig.Config) (framesource.Source, humane.Error) {
	if cfg.Source.Kind == bridgeconfig.SourcePattern {
		log.FromContext(ctx).Info("Using internal pattern source", zap.Int("leds", cfg.LEDs))
		return framesource.NewPattern(cfg.LEDs, cfg.Source.PatternStart, cfg.ChannelOrder), nil
	}

	port, err := framesource.OpenPort(cfg.Source.Device, cfg.Source.Port)
	if err != nil {
		return nil, humane.Wrap(err, "failed to open serial port",
			"check source.device",
			"the user usually has to be in the dialout group",
		)
	}

	source, err := framesource.NewSerial(port, framesource.WithFrameTimeout(cfg.Source.FrameTimeout))
	if err != nil {
		port.Close()
		return nil, humane.Wrap(err, "failed to configure serial port", "check source.port")
	}

	log.FromContext(ctx).Info("Reading frames from serial port",
		zap.String("device", cfg.Source.Device),
		zap.Int("frame_bytes", cfg.LEDs*3),
	)
	return source, nil
}

func closeSource(ctx context.Context, source framesource.Source) {
	if c, ok := source.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			log.FromContext(ctx).Warn("Failed to close frame source", zap.Error(err))
		}
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.FromContext(ctx).Info("Serving metrics", zap.String("address", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return humane.Wrap(err, "metrics listener failed", "check metrics.listen, or leave it empty to disable metrics")
	}
	return nil
}
