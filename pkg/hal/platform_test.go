package hal_test

import (
	"testing"

	"github.com/compute-blade-community/pixelbridge/pkg/hal"
	"github.com/stretchr/testify/assert"
)

func TestParseCompatible(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		compatible string
		expected   hal.Platform
		rp1        bool
	}{
		{"cm5", "raspberrypi,5-compute-module\x00brcm,bcm2712\x00", hal.PlatformBCM2712, true},
		{"cm4", "raspberrypi,4-compute-module\x00brcm,bcm2711\x00", hal.PlatformBCM2711, false},
		{"rk1", "turing,rk1\x00rockchip,rk3588\x00", hal.PlatformRK3588, false},
		{"other", "qemu,virt\x00", hal.PlatformUnknown, false},
		{"empty", "", hal.PlatformUnknown, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := hal.ParseCompatible(tc.compatible)
			assert.Equal(t, tc.expected, p)
			assert.Equal(t, tc.rp1, p.HasRP1())
		})
	}
}
