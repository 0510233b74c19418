//go:build linux && !tinygo

package hal

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/compute-blade-community/pixelbridge/pkg/log"
	"go.uber.org/zap"
)

const deviceTreeCompatiblePath = "/sys/firmware/devicetree/base/compatible"

// DetectPlatform reads the device tree compatible string to determine the SoC.
func DetectPlatform(ctx context.Context) (Platform, error) {
	compatible, err := os.ReadFile(deviceTreeCompatiblePath)
	if err != nil {
		return PlatformUnknown, fmt.Errorf("failed to read device tree compatible string: %w", err)
	}

	compatStr := string(compatible)
	platform := ParseCompatible(compatStr)
	log.FromContext(ctx).Info("detected platform",
		zap.String("compatible", strings.ReplaceAll(strings.TrimRight(compatStr, "\x00"), "\x00", ", ")),
		zap.String("platform", string(platform)),
	)

	return platform, nil
}
