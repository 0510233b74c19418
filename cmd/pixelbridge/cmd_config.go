package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(cmdConfig)
}

var cmdConfig = &cobra.Command{
	Use:     "config",
	Short:   "Print the effective configuration as YAML",
	Example: "pixelbridge config --leds 60 > /etc/pixelbridge/pixelbridge.yaml",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		encoder := yaml.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent(2)
		if err := encoder.Encode(cfg); err != nil {
			return err
		}
		return encoder.Close()
	},
}
