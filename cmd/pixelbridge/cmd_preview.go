package main

import (
	"context"
	"errors"
	"os"

	"github.com/compute-blade-community/pixelbridge/internal/bridge"
	"github.com/compute-blade-community/pixelbridge/pkg/transmitter"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdPreview)
}

var cmdPreview = &cobra.Command{
	Use:     "preview",
	Short:   "Run the bridge against the terminal instead of a strip",
	Long:    "preview runs the full encode and transmit loop, decodes every pulse buffer back into colors and draws the strip on the terminal.",
	Example: "pixelbridge preview --source pattern --leds 30",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancelCause(cmd.Context())
		defer cancel(nil)

		enc, herr := cfg.Encoder()
		if herr != nil {
			return herr
		}

		source, herr := openSource(ctx, cfg)
		if herr != nil {
			return herr
		}

		b, err := bridge.New(
			bridge.WithSource(source),
			bridge.WithTransmitter(transmitter.NewPreview(os.Stdout, enc, cfg.ChannelOrder)),
			bridge.WithEncoder(enc),
			bridge.WithLEDs(cfg.LEDs),
			bridge.WithIdleGap(cfg.IdleGap()),
		)
		if err != nil {
			closeSource(ctx, source)
			return err
		}

		done := b.RunAsync(ctx, cancel)
		<-ctx.Done()
		<-done

		stopCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer stop()
		_ = b.GracefulStop(stopCtx)

		if err := context.Cause(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
