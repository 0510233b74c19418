package util_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
	"github.com/compute-blade-community/pixelbridge/pkg/util"
	"github.com/stretchr/testify/assert"
)

func TestPrintKeyValues(t *testing.T) {
	t.Parallel()

	out := util.PrintKeyValues([]util.KeyValue{
		{Key: "leds", Value: "60", Style: lipgloss.NewStyle()},
		{Key: "bit order", Value: "msb", Style: util.OkStyle()},
	})

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "leds:")
	assert.Contains(t, lines[0], "60")
	assert.Contains(t, lines[1], "bit order:")
	assert.Contains(t, lines[1], "msb")
	assert.Equal(t, strings.Index(lines[0], "60"), strings.Index(lines[1], "msb"))
}

func TestSwatch(t *testing.T) {
	t.Parallel()

	assert.Contains(t, util.Swatch(led.Color{Red: 255}), "██")
}

func TestCriticalStyle(t *testing.T) {
	t.Parallel()

	style := util.CriticalStyle()
	assert.Equal(t, lipgloss.TerminalColor(util.ColorCritical), style.GetForeground())
	assert.True(t, style.GetBold())
}
