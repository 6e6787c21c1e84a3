//go:build !linux && !windows

package gpu

import "codeberg.org/mutker/atkctl/internal/errors"

// NVML is loaded through go-nvml on Linux and nvml.dll on Windows only.
type unsupportedController struct{}

func newController() controller {
	return unsupportedController{}
}

func (unsupportedController) Initialize() error {
	return errors.New().New(ErrUnsupportedPlatform)
}

func (unsupportedController) Shutdown() error {
	return nil
}

func (unsupportedController) DeviceCount() (int, error) {
	return 0, errors.New().New(ErrNotInitialized)
}

func (unsupportedController) Device(int) (device, error) {
	return nil, errors.New().New(ErrNotInitialized)
}
