package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"codeberg.org/mutker/atkctl/internal/atk"
	"codeberg.org/mutker/atkctl/internal/config"
	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/gpu"
	"codeberg.org/mutker/atkctl/internal/logger"
	"codeberg.org/mutker/atkctl/internal/mode"
	"codeberg.org/mutker/atkctl/internal/pid"
	"codeberg.org/mutker/atkctl/internal/sensor"
	"codeberg.org/mutker/atkctl/internal/stats"
	"codeberg.org/mutker/atkctl/internal/thermal"
)

// app owns every component for the lifetime of one invocation.
type app struct {
	cfg     *config.Config
	out     io.Writer
	modes   *mode.Store
	lhm     *sensor.VendorLibrary
	thermal *thermal.Aggregator
	stats   *stats.Collector

	// pidDir is where monitor mode keeps its PID file. Empty means the
	// system temporary directory.
	pidDir string
}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	errFactory := errors.New()

	channel := atk.NewChannel(cfg.DevicePath)
	client := atk.NewClient(channel, logger.New("atk"))

	platform, err := thermal.DetectPlatform(cfg.Platform, channel)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}
	logger.Debug().
		Str("platform", platform.String()).
		Str("device_path", channel.Path()).
		Msg("Platform selected")

	modes := mode.NewStore(client, openModeCache(cfg), logger.New("mode"))
	if err := modes.Initialize(); err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	lhm := sensor.NewVendorLibrary(sensor.NewWMISource(""), logger.New("lhm"))
	vendorLibraryReady(platform, lhm)
	nvml := gpu.NewReader(logger.New("nvml"))
	if name, err := nvml.DeviceName(); err == nil {
		logger.Debug().Str("gpu", name).Msg("Detected NVIDIA GPU")
	}

	agg := thermal.New(platform, thermal.Backends{
		Vendor: lhm,
		Native: sensor.NewNative(logger.New("native")),
		GPU:    nvml,
		Fans:   client,
	}, cfg.FanMaxRPM, logger.New("thermal"))

	return &app{
		cfg:     cfg,
		out:     out,
		modes:   modes,
		lhm:     lhm,
		thermal: agg,
		stats:   stats.NewCollector(agg, modes, logger.New("stats")),
	}, nil
}

// vendorLibraryReady warns when the vendor platform runs without
// LibreHardwareMonitor, which supplies every temperature there.
func vendorLibraryReady(platform thermal.Platform, lhm *sensor.VendorLibrary) bool {
	if platform != thermal.PlatformVendorDriver {
		return false
	}

	if !lhm.Available() {
		logger.Warn().Msg("LibreHardwareMonitor is not running; temperatures will be missing")
		return false
	}
	logger.Debug().Msg("LibreHardwareMonitor available")

	return true
}

// openModeCache returns the configured repository, or nil when it cannot be
// opened. Without a cache the store still works but forgets writes on exit.
func openModeCache(cfg *config.Config) mode.Repository {
	log := logger.New("mode_cache")

	var (
		repo mode.Repository
		err  error
	)
	switch cfg.ModeCacheBackend {
	case config.CacheBackendSQLite:
		repo, err = mode.NewSQLiteRepository(cfg.ModeCache, log)
	default:
		repo, err = mode.NewFileRepository(cfg.ModeCache, log)
	}
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.ModeCache).Msg("Mode cache disabled")
		return nil
	}

	return repo
}

func (a *app) run(ctx context.Context) error {
	switch {
	case a.cfg.DumpSensors:
		return a.dumpSensors()
	case a.cfg.CPUMode != "" || a.cfg.GPUMode != "":
		return a.applyModes()
	case a.cfg.Monitor:
		return a.monitor(ctx)
	default:
		return a.printStats(ctx)
	}
}

func (a *app) close() {
	if err := a.modes.Close(); err != nil {
		logFailure(errors.New().Wrap(errors.ErrShutdownFailed, err), "Failed to close mode cache")
	}
}

// applyModes writes the requested CPU mode and then the GPU mode. The state
// is printed even when a write fails.
func (a *app) applyModes() error {
	errFactory := errors.New()

	var failed error
	if a.cfg.CPUMode != "" {
		if _, err := a.modes.SetCPUMode(a.cfg.CPUMode); err != nil {
			failed = err
		}
	}
	if failed == nil && a.cfg.GPUMode != "" {
		if _, err := a.modes.SetGPUMode(a.cfg.GPUMode); err != nil {
			failed = err
		}
	}

	if err := a.printModes(a.modes.State()); err != nil {
		return err
	}

	if failed != nil {
		return errFactory.Wrap(errors.ErrApplyModes, failed)
	}

	return nil
}

func (a *app) printModes(state mode.State) error {
	if a.cfg.JSON {
		return a.writeJSON(state)
	}

	logger.Info().
		Str("cpu_mode", modeName(string(state.CPU))).
		Str("gpu_mode", modeName(string(state.GPU))).
		Msg("Performance modes")

	return nil
}

func (a *app) dumpSensors() error {
	entries, err := a.lhm.Dump()
	if err != nil {
		return errors.New().Wrap(errors.ErrUnavailable, err)
	}

	if a.cfg.JSON {
		return a.writeJSON(entries)
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(a.out, "%s\t%s\t%s\t%.1f\n", e.Hardware, e.Type, e.Name, e.Value); err != nil {
			return errors.New().Wrap(errors.ErrPrintOutput, err)
		}
	}

	return nil
}

func (a *app) printStats(ctx context.Context) error {
	s, err := a.stats.Collect(ctx)
	if err != nil {
		return err
	}

	if a.cfg.JSON {
		return a.writeJSON(s)
	}

	logger.Info().
		Str("os", s.System.OS).
		Str("hostname", s.System.Hostname).
		Float64("cpu_usage", s.CPU.UsagePercent).
		Int("cpu_cores", s.CPU.CoreCount).
		Float64("memory_used", s.Memory.UsedPercent).
		Float64("memory_total_gb", s.Memory.TotalGB).
		Float64("disk_used", s.Disk.UsedPercent).
		Uint64("net_sent", s.Network.BytesSent).
		Uint64("net_recv", s.Network.BytesReceived).
		Str("cpu_mode", modeName(string(s.Modes.CPU))).
		Str("gpu_mode", modeName(string(s.Modes.GPU))).
		Msg("System stats")
	a.logSnapshot(s.Thermal)

	return nil
}

// monitor logs a snapshot every interval until ctx is cancelled.
func (a *app) monitor(ctx context.Context) error {
	errFactory := errors.New()

	if err := pid.Write(a.pidDir); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(a.pidDir); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	interval := time.Duration(a.cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info().
		Str("platform", a.thermal.Platform().String()).
		Dur("interval", interval).
		Msg("Monitor mode activated. Logging thermal status...")

	for {
		if err := a.emitSnapshot(ctx); err != nil {
			return errFactory.Wrap(errors.ErrMainLoop, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *app) emitSnapshot(ctx context.Context) error {
	snap := a.thermal.Snapshot(ctx)
	if a.cfg.JSON {
		return a.writeJSONLine(snap)
	}

	a.logSnapshot(snap)
	return nil
}

func (a *app) logSnapshot(s thermal.Snapshot) {
	e := logger.Info()
	floatField(e, "cpu_package_temp", s.CPUPackageTemp)
	floatField(e, "cpu_core_avg_temp", s.CPUCoreAvgTemp)
	floatField(e, "cpu_core_max_temp", s.CPUCoreMaxTemp)
	intField(e, "cpu_fan_rpm", s.CPUFanRPM)
	floatField(e, "cpu_fan_percent", s.CPUFanPercent)
	floatField(e, "gpu_core_temp", s.GPUCoreTemp)
	floatField(e, "gpu_hotspot_temp", s.GPUHotspotTemp)
	intField(e, "gpu_fan_rpm", s.GPUFanRPM)
	floatField(e, "gpu_fan_percent", s.GPUFanPercent)
	e.Msg("Thermal status")
}

func floatField(e *logger.LogEvent, key string, v *float64) {
	if v != nil {
		e.Float64(key, *v)
	}
}

func intField(e *logger.LogEvent, key string, v *int) {
	if v != nil {
		e.Int(key, *v)
	}
}

func modeName(name string) string {
	if name == "" {
		return "unknown"
	}

	return name
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.New().Wrap(errors.ErrPrintOutput, err)
	}

	return nil
}

func (a *app) writeJSONLine(v any) error {
	if err := json.NewEncoder(a.out).Encode(v); err != nil {
		return errors.New().Wrap(errors.ErrPrintOutput, err)
	}

	return nil
}
