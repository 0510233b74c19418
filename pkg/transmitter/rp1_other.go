//go:build !linux && !tinygo

package transmitter

import (
	"context"
	"errors"
	"time"

	"github.com/compute-blade-community/pixelbridge/pkg/ws281x"
)

func openRP1(context.Context, *ws281x.Encoder, time.Duration) (Transmitter, error) {
	return nil, errors.New("the RP1 serializer is only available on linux")
}
