//go:build !linux || tinygo

package hal

import (
	"context"
	"errors"
)

func DetectPlatform(context.Context) (Platform, error) {
	return PlatformUnknown, errors.New("platform detection requires a linux device tree")
}
