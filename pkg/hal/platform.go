// Package hal detects the board pixelbridge runs on and controls the board
// level GPIO around the LED strip.
package hal

import "strings"

// Platform identifies the SoC family from its device tree compatible string.
type Platform string

const (
	PlatformUnknown Platform = "unknown"
	PlatformBCM2711 Platform = "bcm2711"
	PlatformBCM2712 Platform = "bcm2712"
	PlatformRK3588  Platform = "rk3588"
)

// HasRP1 reports whether the RP1 southbridge with its PWM serializer is present.
func (p Platform) HasRP1() bool {
	return p == PlatformBCM2712
}

// ParseCompatible maps a NUL separated device tree compatible list to a Platform.
func ParseCompatible(compatible string) Platform {
	switch {
	case strings.Contains(compatible, "bcm2712"):
		return PlatformBCM2712
	case strings.Contains(compatible, "bcm2711"):
		return PlatformBCM2711
	case strings.Contains(compatible, "rockchip,rk3588"):
		return PlatformRK3588
	default:
		return PlatformUnknown
	}
}
