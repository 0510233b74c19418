package main

import (
	"bytes"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// rootCmd and its configuration are package globals, so these tests run
// sequentially.

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestEncodeCommand(t *testing.T) {
	out := execute(t, "encode", "b0ff00")

	assert.Contains(t, out, "byte 0 (0xb0):")
	assert.Contains(t, out, "(H,64)(L,36) (H,32)(L,68) (H,64)(L,36) (H,64)(L,36) (H,32)(L,68) (H,32)(L,68) (H,32)(L,68) (H,32)(L,68)")
	assert.Contains(t, out, "symbols:")
	assert.Contains(t, out, "25")
	assert.Contains(t, out, "wire time:")
}

func TestEncodeCommand_PartialLED(t *testing.T) {
	out := execute(t, "encode", "b0ff")

	assert.Contains(t, out, "byte 1 (0xff):")
	assert.Contains(t, out, "2 bytes is not a whole number of LEDs, 2 left over")
	assert.NotContains(t, out, "symbols:")
}

func TestEncodeCommand_Empty(t *testing.T) {
	rootCmd.SetArgs([]string{"encode", ""})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.ErrorContains(t, rootCmd.Execute(), "no bytes to encode")
}

func TestConfigCommand(t *testing.T) {
	out := execute(t, "config", "--leds", "60", "--source", "pattern")

	var dumped map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &dumped))
	assert.Equal(t, 60, dumped["leds"])
	assert.Equal(t, "GRB", dumped["channel-order"])
	assert.Equal(t, "500ms", dumped["frame-period"])
	assert.Equal(t, "pattern", dumped["source"].(map[string]any)["kind"])
}

func TestBindFlags_UnknownFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	err := bindFlags(flags, map[string]string{"leds": "led-count"})
	assert.EqualError(t, err, "flag --led-count for leds is not defined")
}
