package led

import (
	"fmt"
	"strings"
)

// Color is a 24 bit RGB color.
type Color struct {
	Red   uint8 `mapstructure:"red" yaml:"red"`
	Green uint8 `mapstructure:"green" yaml:"green"`
	Blue  uint8 `mapstructure:"blue" yaml:"blue"`
}

// ChannelOrder describes the order in which a LED expects its color channels on the wire.
type ChannelOrder string

const (
	OrderGRB ChannelOrder = "GRB"
	OrderRGB ChannelOrder = "RGB"
	OrderBRG ChannelOrder = "BRG"
	OrderBGR ChannelOrder = "BGR"
	OrderRBG ChannelOrder = "RBG"
	OrderGBR ChannelOrder = "GBR"
)

// ParseChannelOrder parses a three letter channel order such as "grb".
func ParseChannelOrder(s string) (ChannelOrder, error) {
	order := ChannelOrder(strings.ToUpper(strings.TrimSpace(s)))
	switch order {
	case OrderGRB, OrderRGB, OrderBRG, OrderBGR, OrderRBG, OrderGBR:
		return order, nil
	default:
		return "", fmt.Errorf("unsupported channel order %q: expected a permutation of R, G and B", s)
	}
}

// Put writes c into dst[0:3] in channel order.
func (o ChannelOrder) Put(dst []byte, c Color) {
	_ = dst[2]
	for i := 0; i < 3; i++ {
		switch o[i] {
		case 'R':
			dst[i] = c.Red
		case 'G':
			dst[i] = c.Green
		case 'B':
			dst[i] = c.Blue
		}
	}
}

// Get reads a color from src[0:3] in channel order.
func (o ChannelOrder) Get(src []byte) Color {
	_ = src[2]
	var c Color
	for i := 0; i < 3; i++ {
		switch o[i] {
		case 'R':
			c.Red = src[i]
		case 'G':
			c.Green = src[i]
		case 'B':
			c.Blue = src[i]
		}
	}
	return c
}
