package util

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
)

const (
	ColorCritical = lipgloss.Color("#cc0000")
	ColorOk       = lipgloss.Color("#04B575")
)

func OkStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorOk)
}

func CriticalStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
}

func KeyStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

type KeyValue struct {
	Key   string
	Value string
	Style lipgloss.Style
}

// PrintKeyValues renders aligned "key: value" lines.
func PrintKeyValues(kvs []KeyValue) string {
	width := 0
	for _, kv := range kvs {
		width = max(width, lipgloss.Width(kv.Key))
	}

	var sb strings.Builder
	keyStyle := KeyStyle().Width(width + 1)
	for i, kv := range kvs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(keyStyle.Render(kv.Key + ":"))
		sb.WriteByte(' ')
		sb.WriteString(kv.Style.Render(kv.Value))
	}
	return sb.String()
}

// Swatch renders a two cell block in color c.
func Swatch(c led.Color) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue))).
		Render("██")
}
