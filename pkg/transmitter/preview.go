//go:build !tinygo

package transmitter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/compute-blade-community/pixelbridge/pkg/hal/led"
	"github.com/compute-blade-community/pixelbridge/pkg/util"
	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

// Preview decodes every pulse buffer back into colors and draws the strip as
// one terminal line. It checks the encoding end to end without hardware.
type Preview struct {
	channel

	w     io.Writer
	enc   *ws281x.Encoder
	order led.ChannelOrder
	frame ws281x.Frame
	line  strings.Builder
}

func NewPreview(w io.Writer, enc *ws281x.Encoder, order led.ChannelOrder) *Preview {
	return &Preview{
		channel: channel{driver: "preview"},
		w:       w,
		enc:     enc,
		order:   order,
	}
}

func (p *Preview) Start(_ context.Context, buf *ws281x.PulseBuffer) (*Pending, error) {
	return p.start(buf, func([]ws281x.Symbol) error {
		return p.draw(buf)
	})
}

func (p *Preview) draw(buf *ws281x.PulseBuffer) error {
	if p.frame.LEDs() != buf.LEDs() {
		p.frame = ws281x.NewFrame(buf.LEDs())
	}
	if err := p.enc.DecodeFrame(buf, p.frame); err != nil {
		return fmt.Errorf("preview cannot decode pulse buffer: %w", err)
	}

	p.line.Reset()
	p.line.WriteByte('\r')
	for i := 0; i < p.frame.LEDs(); i++ {
		p.line.WriteString(util.Swatch(p.frame.Pixel(i, p.order)))
	}

	_, err := io.WriteString(p.w, p.line.String())
	return err
}

func (p *Preview) Close() error {
	p.close()
	_, err := io.WriteString(p.w, "\n")
	return err
}
