package thermal

import (
	"context"
	"math"

	"codeberg.org/mutker/atkctl/internal/atk"
	"codeberg.org/mutker/atkctl/internal/logger"
	"codeberg.org/mutker/atkctl/internal/sensor"
	"golang.org/x/sync/errgroup"
)

// DefaultFanMaxRPM is the top fan speed of the ASUS TUF Dash F15.
const DefaultFanMaxRPM = 6600

// FanReader reads fan RPM from the ATK driver. *atk.Client implements it.
type FanReader interface {
	FanRPM(id atk.DeviceID) (int, error)
}

// Backends is the set of sources available to the aggregator. Nil members
// are treated as reporting nothing.
type Backends struct {
	Vendor sensor.Backend
	Native sensor.Backend
	GPU    sensor.Backend
	Fans   FanReader
}

// Aggregator merges backend readings into a Snapshot. For every field the
// first backend in precedence order that reports a value wins; values are
// never averaged across backends.
type Aggregator struct {
	platform  Platform
	backends  Backends
	fanMaxRPM int
	logger    logger.Logger
}

func New(platform Platform, backends Backends, fanMaxRPM int, log logger.Logger) *Aggregator {
	if fanMaxRPM <= 0 {
		fanMaxRPM = DefaultFanMaxRPM
	}

	return &Aggregator{
		platform:  platform,
		backends:  backends,
		fanMaxRPM: fanMaxRPM,
		logger:    log,
	}
}

func (a *Aggregator) Platform() Platform {
	return a.platform
}

// Snapshot reads every applicable backend in parallel and merges the
// results. It never fails; unreachable sources leave fields nil.
func (a *Aggregator) Snapshot(ctx context.Context) Snapshot {
	if a.platform == PlatformVendorDriver {
		return a.vendorSnapshot(ctx)
	}

	return a.nativeSnapshot(ctx)
}

func (a *Aggregator) vendorSnapshot(ctx context.Context) Snapshot {
	var (
		vendorCPU      sensor.CPUThermal
		vendorGPU      sensor.GPUThermal
		nvmlGPU        sensor.GPUThermal
		cpuFan, gpuFan *int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vendorCPU = readCPU(ctx, a.backends.Vendor)
		return nil
	})
	g.Go(func() error {
		vendorGPU = readGPU(ctx, a.backends.Vendor)
		return nil
	})
	g.Go(func() error {
		nvmlGPU = readGPU(ctx, a.backends.GPU)
		return nil
	})
	g.Go(func() error {
		cpuFan = a.fanRPM(atk.DeviceCPUFan)
		return nil
	})
	g.Go(func() error {
		gpuFan = a.fanRPM(atk.DeviceGPUFan)
		return nil
	})
	_ = g.Wait()

	// The library's own fan sensors are unreliable on these machines; fan
	// figures come only from the ATK driver.
	return Snapshot{
		CPUPackageTemp: vendorCPU.PackageTemp,
		CPUCoreAvgTemp: vendorCPU.CoreAvgTemp,
		CPUCoreMaxTemp: vendorCPU.CoreMaxTemp,
		CPUFanRPM:      cpuFan,
		CPUFanPercent:  FanPercent(cpuFan, a.fanMaxRPM),
		GPUCoreTemp:    firstOf(vendorGPU.CoreTemp, nvmlGPU.CoreTemp),
		GPUHotspotTemp: vendorGPU.HotspotTemp,
		GPUFanRPM:      gpuFan,
		GPUFanPercent:  FanPercent(gpuFan, a.fanMaxRPM),
	}
}

func (a *Aggregator) nativeSnapshot(ctx context.Context) Snapshot {
	var (
		nativeCPU sensor.CPUThermal
		nvmlGPU   sensor.GPUThermal
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nativeCPU = readCPU(ctx, a.backends.Native)
		return nil
	})
	g.Go(func() error {
		nvmlGPU = readGPU(ctx, a.backends.GPU)
		return nil
	})
	_ = g.Wait()

	return Snapshot{
		CPUPackageTemp: nativeCPU.PackageTemp,
		CPUFanRPM:      roundRPM(nativeCPU.FanRPM),
		GPUCoreTemp:    nvmlGPU.CoreTemp,
		GPUFanPercent:  nvmlGPU.FanPercent,
	}
}

func (a *Aggregator) fanRPM(id atk.DeviceID) *int {
	if a.backends.Fans == nil {
		return nil
	}

	rpm, err := a.backends.Fans.FanRPM(id)
	if err != nil {
		a.logger.Debug().Err(err).Str("device", id.String()).Msg("Fan reading unavailable")
		return nil
	}

	return &rpm
}

func readCPU(ctx context.Context, b sensor.Backend) sensor.CPUThermal {
	if b == nil {
		return sensor.CPUThermal{}
	}

	return b.ReadCPU(ctx)
}

func readGPU(ctx context.Context, b sensor.Backend) sensor.GPUThermal {
	if b == nil {
		return sensor.GPUThermal{}
	}

	return b.ReadGPU(ctx)
}

func roundRPM(v *float64) *int {
	if v == nil {
		return nil
	}

	rpm := int(math.Round(*v))

	return &rpm
}
