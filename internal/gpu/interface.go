package gpu

// controller abstracts the NVML library lifecycle for testing
type controller interface {
	Initialize() error
	Shutdown() error
	DeviceCount() (int, error)
	Device(index int) (device, error)
}

// device is the subset of per-GPU queries the reader needs
type device interface {
	Name() (string, error)
	Temperature() (Temperature, error)
	FanSpeed() (FanSpeed, error)
}

// Domain types for type safety
type (
	// Temperature in degrees Celsius
	Temperature int
	// FanSpeed in percent of the maximum
	FanSpeed int
)
