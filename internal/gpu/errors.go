package gpu

import "codeberg.org/mutker/atkctl/internal/errors"

const (
	// Initialization and Lifecycle Errors
	ErrNotInitialized      = errors.ErrorCode("gpu_not_initialized")
	ErrInitFailed          = errors.ErrorCode("gpu_init_failed")
	ErrShutdownFailed      = errors.ErrorCode("gpu_shutdown_failed")
	ErrUnsupportedPlatform = errors.ErrorCode("gpu_unsupported_platform")

	// Device Discovery Errors
	ErrDeviceCountFailed = errors.ErrorCode("gpu_device_count_failed")
	ErrDeviceNotFound    = errors.ErrorCode("gpu_device_not_found")
	ErrDeviceInfoFailed  = errors.ErrorCode("gpu_device_info_failed")

	// Sensor Errors
	ErrTemperatureReadFailed = errors.ErrorCode("gpu_temperature_read_failed")
	ErrGetFanSpeedFailed     = errors.ErrorCode("gpu_fan_speed_failed")
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrNotInitialized:        "NVML not initialized",
		ErrInitFailed:            "Failed to initialize NVML",
		ErrShutdownFailed:        "Failed to shut down NVML",
		ErrUnsupportedPlatform:   "NVML is not supported on this platform",
		ErrDeviceCountFailed:     "Failed to count GPU devices",
		ErrDeviceNotFound:        "GPU device not found",
		ErrDeviceInfoFailed:      "Failed to read GPU device info",
		ErrTemperatureReadFailed: "Failed to read GPU temperature",
		ErrGetFanSpeedFailed:     "Failed to read GPU fan speed",
	})
}

func errNoDevice() error {
	return errors.New().WithData(ErrDeviceNotFound, "no GPU devices")
}
