package gpu

import (
	"context"
	"sync"

	"codeberg.org/mutker/atkctl/internal/logger"
	"codeberg.org/mutker/atkctl/internal/sensor"
)

// Reader reports the first NVIDIA GPU's temperature and fan speed. NVML is
// initialized and shut down around every read.
type Reader struct {
	ctrl   controller
	logger logger.Logger
	mu     sync.Mutex
}

func NewReader(log logger.Logger) *Reader {
	return newReader(newController(), log)
}

func newReader(ctrl controller, log logger.Logger) *Reader {
	return &Reader{
		ctrl:   ctrl,
		logger: log,
	}
}

func (*Reader) Name() string {
	return "nvml"
}

// ReadCPU reports nothing.
func (*Reader) ReadCPU(context.Context) sensor.CPUThermal {
	return sensor.CPUThermal{}
}

// ReadGPU reads core temperature and fan percent. A missing fan reading
// does not discard the temperature.
func (r *Reader) ReadGPU(_ context.Context) sensor.GPUThermal {
	var out sensor.GPUThermal

	err := r.withDevice(func(d device) {
		temp, err := d.Temperature()
		if err != nil {
			r.logger.Debug().Err(err).Msg("Failed to read GPU temperature")
		} else {
			v := float64(temp)
			out.CoreTemp = &v
		}

		speed, err := d.FanSpeed()
		if err != nil {
			r.logger.Debug().Err(err).Msg("GPU fan speed not reported")
		} else {
			v := float64(speed)
			out.FanPercent = &v
		}
	})
	if err != nil {
		r.logger.Debug().Err(err).Msg("NVML unavailable")
	}

	return out
}

// DeviceName returns the first GPU's name.
func (r *Reader) DeviceName() (string, error) {
	var name string
	var nameErr error

	err := r.withDevice(func(d device) {
		name, nameErr = d.Name()
	})
	if err != nil {
		return "", err
	}

	return name, nameErr
}

// withDevice runs fn against device 0 inside one NVML session.
func (r *Reader) withDevice(fn func(device)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ctrl.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := r.ctrl.Shutdown(); err != nil {
			r.logger.Debug().Err(err).Msg("Failed to shut down NVML")
		}
	}()

	count, err := r.ctrl.DeviceCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return errNoDevice()
	}

	d, err := r.ctrl.Device(0)
	if err != nil {
		return err
	}

	fn(d)

	return nil
}
