//go:build linux

package gpu

import (
	"codeberg.org/mutker/atkctl/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlError represents an NVML-specific error
type nvmlError struct {
	ret nvml.Return
}

func (e nvmlError) Error() string {
	return nvml.ErrorString(e.ret)
}

// newNVMLError creates an error from an NVML return code
func newNVMLError(ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return &nvmlError{ret: ret}
}

// IsNVMLSuccess checks if a Return value indicates success
func IsNVMLSuccess(ret nvml.Return) bool {
	return ret == nvml.SUCCESS
}

type nvmlWrapper struct {
	initialized bool
}

func newController() controller {
	return &nvmlWrapper{}
}

func (w *nvmlWrapper) Initialize() error {
	if w.initialized {
		return nil
	}

	// Reports ERROR_LIBRARY_NOT_FOUND when libnvidia-ml is missing
	ret := nvml.Init()
	if !IsNVMLSuccess(ret) {
		return errors.New().Wrap(ErrInitFailed, newNVMLError(ret))
	}

	w.initialized = true

	return nil
}

func (w *nvmlWrapper) Shutdown() error {
	if !w.initialized {
		return nil
	}

	ret := nvml.Shutdown()
	if !IsNVMLSuccess(ret) {
		return errors.New().Wrap(ErrShutdownFailed, newNVMLError(ret))
	}

	w.initialized = false

	return nil
}

func (w *nvmlWrapper) DeviceCount() (int, error) {
	errFactory := errors.New()
	if !w.initialized {
		return 0, errFactory.New(ErrNotInitialized)
	}

	count, ret := nvml.DeviceGetCount()
	if !IsNVMLSuccess(ret) {
		return 0, errFactory.Wrap(ErrDeviceCountFailed, newNVMLError(ret))
	}

	return count, nil
}

func (w *nvmlWrapper) Device(index int) (device, error) {
	errFactory := errors.New()
	if !w.initialized {
		return nil, errFactory.New(ErrNotInitialized)
	}

	d, ret := nvml.DeviceGetHandleByIndex(index)
	if !IsNVMLSuccess(ret) {
		return nil, errFactory.Wrap(ErrDeviceNotFound, newNVMLError(ret))
	}

	return &nvmlDevice{device: d}, nil
}

type nvmlDevice struct {
	device nvml.Device
}

func (d *nvmlDevice) Name() (string, error) {
	name, ret := d.device.GetName()
	if !IsNVMLSuccess(ret) {
		return "", errors.New().Wrap(ErrDeviceInfoFailed, newNVMLError(ret))
	}

	return name, nil
}

func (d *nvmlDevice) Temperature() (Temperature, error) {
	temp, ret := d.device.GetTemperature(nvml.TEMPERATURE_GPU)
	if !IsNVMLSuccess(ret) {
		return 0, errors.New().Wrap(ErrTemperatureReadFailed, newNVMLError(ret))
	}

	return Temperature(temp), nil
}

func (d *nvmlDevice) FanSpeed() (FanSpeed, error) {
	speed, ret := d.device.GetFanSpeed()
	if !IsNVMLSuccess(ret) {
		return 0, errors.New().Wrap(ErrGetFanSpeedFailed, newNVMLError(ret))
	}

	return FanSpeed(speed), nil
}
