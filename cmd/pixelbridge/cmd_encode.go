package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/compute-blade-community/pixelbridge/pkg/util"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
	"github.com/sierrasoftworks/humane-errors-go"
	"github.com/spf13/cobra"
)

var showCodes bool

func init() {
	cmdEncode.Flags().BoolVar(&showCodes, "codes", false, "Print packed 32 bit pulse codes instead of symbols")

	rootCmd.AddCommand(cmdEncode)
}

var cmdEncode = &cobra.Command{
	Use:     "encode <hex bytes>",
	Short:   "Print the pulse symbols the bridge would transmit for the given bytes",
	Example: "pixelbridge encode b0ff00",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
		if err != nil {
			return humane.Wrap(err, "invalid hex input", "pass the bytes as hex digits, for example b0ff00")
		}
		if len(data) == 0 {
			return humane.New("no bytes to encode", "pass the bytes as hex digits, for example b0ff00")
		}

		enc, herr := cfg.Encoder()
		if herr != nil {
			return herr
		}

		kvs := make([]util.KeyValue, 0, len(data)+2)
		for i, b := range data {
			symbols := enc.EncodeByte(b)
			parts := make([]string, len(symbols))
			for j, s := range symbols {
				if showCodes {
					parts[j] = fmt.Sprintf("%08x", s.Code())
				} else {
					parts[j] = s.String()
				}
			}
			kvs = append(kvs, util.KeyValue{
				Key:   fmt.Sprintf("byte %d (0x%02x)", i, b),
				Value: strings.Join(parts, " "),
				Style: lipgloss.NewStyle(),
			})
		}

		if rest := len(data) % ws281x.BytesPerLED; rest != 0 {
			kvs = append(kvs, util.KeyValue{
				Key:   "frame",
				Value: fmt.Sprintf("%d bytes is not a whole number of LEDs, %d left over", len(data), rest),
				Style: util.CriticalStyle(),
			})
		} else {
			buf := ws281x.NewPulseBuffer(len(data) / ws281x.BytesPerLED)
			if err := enc.EncodeFrame(ws281x.Frame(data), buf); err != nil {
				return err
			}
			kvs = append(kvs,
				util.KeyValue{Key: "symbols", Value: fmt.Sprint(buf.Len()), Style: util.OkStyle()},
				util.KeyValue{Key: "wire time", Value: buf.Duration(enc.TickRate()).String(), Style: util.OkStyle()},
			)
		}

		fmt.Fprintln(cmd.OutOrStdout(), util.PrintKeyValues(kvs))
		return nil
	},
}
