//go:build !linux || tinygo

package hal

import (
	"context"
	"errors"
	"io"
)

func EnablePower(context.Context, string, string, bool) (io.Closer, error) {
	return nil, errors.New("GPIO power control is only available on linux")
}
