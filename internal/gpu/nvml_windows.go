//go:build windows

package gpu

import (
	"fmt"
	"unsafe"

	"codeberg.org/mutker/atkctl/internal/errors"
	"golang.org/x/sys/windows"
)

// go-nvml only binds libnvidia-ml through dlopen, so on Windows the few
// entry points the reader needs are called from nvml.dll directly. The
// driver installs it in System32.
var (
	nvmlDLL = windows.NewLazySystemDLL("nvml.dll")

	procInit           = nvmlDLL.NewProc("nvmlInit_v2")
	procShutdown       = nvmlDLL.NewProc("nvmlShutdown")
	procDeviceCount    = nvmlDLL.NewProc("nvmlDeviceGetCount_v2")
	procDeviceByIndex  = nvmlDLL.NewProc("nvmlDeviceGetHandleByIndex_v2")
	procDeviceName     = nvmlDLL.NewProc("nvmlDeviceGetName")
	procDeviceTemp     = nvmlDLL.NewProc("nvmlDeviceGetTemperature")
	procDeviceFanSpeed = nvmlDLL.NewProc("nvmlDeviceGetFanSpeed")

	nvmlProcs = []*windows.LazyProc{
		procInit, procShutdown, procDeviceCount, procDeviceByIndex,
		procDeviceName, procDeviceTemp, procDeviceFanSpeed,
	}
)

const (
	nvmlSuccess        nvmlReturn = 0
	nvmlTemperatureGPU            = 0
	// NVML_DEVICE_NAME_V2_BUFFER_SIZE
	nvmlNameBufferSize = 96
)

// nvmlReturn is an nvmlReturn_t status code.
type nvmlReturn uint32

var nvmlReturnNames = map[nvmlReturn]string{
	1:   "uninitialized",
	2:   "invalid argument",
	3:   "not supported",
	4:   "insufficient permissions",
	6:   "not found",
	7:   "insufficient size",
	9:   "driver not loaded",
	10:  "timeout",
	12:  "library not found",
	13:  "function not found",
	15:  "GPU is lost",
	999: "unknown error",
}

func (r nvmlReturn) Error() string {
	if name, ok := nvmlReturnNames[r]; ok {
		return "nvml: " + name
	}

	return fmt.Sprintf("nvml: return code %d", uint32(r))
}

// callNVML invokes an export and converts its status.
//
//go:uintptrescapes
func callNVML(proc *windows.LazyProc, args ...uintptr) error {
	r, _, _ := proc.Call(args...)
	if ret := nvmlReturn(r); ret != nvmlSuccess {
		return ret
	}

	return nil
}

type dllController struct {
	initialized bool
}

func newController() controller {
	return &dllController{}
}

func (c *dllController) Initialize() error {
	if c.initialized {
		return nil
	}

	// A missing DLL or export must not reach Call, which panics
	for _, p := range nvmlProcs {
		if err := p.Find(); err != nil {
			return errors.New().Wrap(ErrInitFailed, err)
		}
	}

	if err := callNVML(procInit); err != nil {
		return errors.New().Wrap(ErrInitFailed, err)
	}

	c.initialized = true

	return nil
}

func (c *dllController) Shutdown() error {
	if !c.initialized {
		return nil
	}

	if err := callNVML(procShutdown); err != nil {
		return errors.New().Wrap(ErrShutdownFailed, err)
	}

	c.initialized = false

	return nil
}

func (c *dllController) DeviceCount() (int, error) {
	errFactory := errors.New()
	if !c.initialized {
		return 0, errFactory.New(ErrNotInitialized)
	}

	var count uint32
	if err := callNVML(procDeviceCount, uintptr(unsafe.Pointer(&count))); err != nil {
		return 0, errFactory.Wrap(ErrDeviceCountFailed, err)
	}

	return int(count), nil
}

func (c *dllController) Device(index int) (device, error) {
	errFactory := errors.New()
	if !c.initialized {
		return nil, errFactory.New(ErrNotInitialized)
	}

	var handle uintptr
	if err := callNVML(procDeviceByIndex, uintptr(index), uintptr(unsafe.Pointer(&handle))); err != nil {
		return nil, errFactory.Wrap(ErrDeviceNotFound, err)
	}

	return &dllDevice{handle: handle}, nil
}

// dllDevice holds an nvmlDevice_t, which is only valid inside the NVML
// session that produced it.
type dllDevice struct {
	handle uintptr
}

func (d *dllDevice) Name() (string, error) {
	var buf [nvmlNameBufferSize]byte
	if err := callNVML(procDeviceName, d.handle, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf))); err != nil {
		return "", errors.New().Wrap(ErrDeviceInfoFailed, err)
	}

	return windows.ByteSliceToString(buf[:]), nil
}

func (d *dllDevice) Temperature() (Temperature, error) {
	var temp uint32
	if err := callNVML(procDeviceTemp, d.handle, nvmlTemperatureGPU, uintptr(unsafe.Pointer(&temp))); err != nil {
		return 0, errors.New().Wrap(ErrTemperatureReadFailed, err)
	}

	return Temperature(temp), nil
}

func (d *dllDevice) FanSpeed() (FanSpeed, error) {
	var speed uint32
	if err := callNVML(procDeviceFanSpeed, d.handle, uintptr(unsafe.Pointer(&speed))); err != nil {
		return 0, errors.New().Wrap(ErrGetFanSpeedFailed, err)
	}

	return FanSpeed(speed), nil
}
