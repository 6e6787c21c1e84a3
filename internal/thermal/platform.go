package thermal

import (
	"strings"

	"codeberg.org/mutker/atkctl/internal/errors"
)

// Platform selects which backends feed a snapshot. It is decided once at
// startup.
type Platform int

const (
	// PlatformNative uses OS sensors and NVML.
	PlatformNative Platform = iota
	// PlatformVendorDriver uses LibreHardwareMonitor and the ATK driver.
	PlatformVendorDriver
)

const ErrInvalidPlatform = errors.ErrorCode("thermal_invalid_platform")

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrInvalidPlatform: "Invalid platform",
	})
}

func (p Platform) String() string {
	switch p {
	case PlatformVendorDriver:
		return "vendor"
	case PlatformNative:
		return "native"
	default:
		return "unknown"
	}
}

// Prober reports whether the vendor driver can be opened.
type Prober interface {
	Available() bool
}

// DetectPlatform resolves a configured platform name. "auto" or an empty
// name probes the vendor driver.
func DetectPlatform(name string, prober Prober) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vendor":
		return PlatformVendorDriver, nil
	case "native":
		return PlatformNative, nil
	case "", "auto":
		if prober != nil && prober.Available() {
			return PlatformVendorDriver, nil
		}
		return PlatformNative, nil
	default:
		return PlatformNative, errors.New().WithData(ErrInvalidPlatform, name)
	}
}
