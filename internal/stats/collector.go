package stats

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"codeberg.org/mutker/atkctl/internal/logger"
	"codeberg.org/mutker/atkctl/internal/mode"
	"codeberg.org/mutker/atkctl/internal/thermal"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

const bytesPerGB = 1 << 30

// ThermalSource produces thermal snapshots. *thermal.Aggregator implements it.
type ThermalSource interface {
	Platform() thermal.Platform
	Snapshot(ctx context.Context) thermal.Snapshot
}

// ModeSource reports the current modes. *mode.Store implements it.
type ModeSource interface {
	State() mode.State
}

// probes wraps the gopsutil calls so tests can replace them.
type probes struct {
	hostInfo      func(ctx context.Context) (*host.InfoStat, error)
	cpuPercent    func(ctx context.Context, perCPU bool) ([]float64, error)
	cpuCount      func(ctx context.Context) (int, error)
	cpuInfo       func(ctx context.Context) ([]cpu.InfoStat, error)
	virtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	diskUsage     func(ctx context.Context, path string) (*disk.UsageStat, error)
	netIO         func(ctx context.Context) ([]net.IOCountersStat, error)
	battery       func() BatteryStats
}

func defaultProbes() probes {
	return probes{
		hostInfo: host.InfoWithContext,
		// Zero interval reports usage since the previous call without sleeping
		cpuPercent: func(ctx context.Context, perCPU bool) ([]float64, error) {
			return cpu.PercentWithContext(ctx, 0, perCPU)
		},
		cpuCount: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, true)
		},
		cpuInfo:       cpu.InfoWithContext,
		virtualMemory: mem.VirtualMemoryWithContext,
		diskUsage:     disk.UsageWithContext,
		netIO: func(ctx context.Context) ([]net.IOCountersStat, error) {
			return net.IOCountersWithContext(ctx, false)
		},
		battery: readBattery,
	}
}

// Collector assembles a SystemStats report.
type Collector struct {
	thermal ThermalSource
	modes   ModeSource
	logger  logger.Logger
	probes  probes
}

// NewCollector creates a collector. modes may be nil when the vendor driver
// is not in use.
func NewCollector(snapshots ThermalSource, modes ModeSource, log logger.Logger) *Collector {
	return &Collector{
		thermal: snapshots,
		modes:   modes,
		logger:  log,
		probes:  defaultProbes(),
	}
}

// Collect gathers every section. Host, CPU, memory, disk and network
// failures fail the report; thermal, mode and battery data degrade to nulls.
func (c *Collector) Collect(ctx context.Context) (*SystemStats, error) {
	system, err := c.systemInfo(ctx)
	if err != nil {
		return nil, err
	}

	cpuStats, err := c.cpuStats(ctx)
	if err != nil {
		return nil, err
	}

	vm, err := c.probes.virtualMemory(ctx)
	if err != nil {
		return nil, collectError("memory", err)
	}

	usage, err := c.probes.diskUsage(ctx, rootPath())
	if err != nil {
		return nil, collectError("disk", err)
	}

	network, err := c.networkStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &SystemStats{
		System: system,
		CPU:    cpuStats,
		Memory: MemoryStats{
			TotalGB:     gb(vm.Total),
			UsedPercent: round(vm.UsedPercent, 1),
			AvailableGB: gb(vm.Available),
		},
		Disk: DiskStats{
			TotalGB:     gb(usage.Total),
			UsedPercent: round(usage.UsedPercent, 1),
		},
		Network: network,
		Battery: c.probes.battery(),
	}

	if c.thermal != nil {
		stats.Thermal = c.thermal.Snapshot(ctx)

		// Modes are only meaningful through the vendor driver
		if c.modes != nil && c.thermal.Platform() == thermal.PlatformVendorDriver {
			stats.Modes = c.modes.State()
		}
	}

	c.logger.Debug().
		Float64("cpu_usage", stats.CPU.UsagePercent).
		Float64("memory_used", stats.Memory.UsedPercent).
		Msg("Collected system stats")

	return stats, nil
}

func (c *Collector) systemInfo(ctx context.Context) (SystemInfo, error) {
	info, err := c.probes.hostInfo(ctx)
	if err != nil {
		return SystemInfo{}, collectError("host", err)
	}

	return SystemInfo{
		OS:            osString(info),
		Hostname:      info.Hostname,
		UptimeSeconds: float64(info.Uptime),
	}, nil
}

func (c *Collector) cpuStats(ctx context.Context) (CPUStats, error) {
	total, err := c.probes.cpuPercent(ctx, false)
	if err != nil {
		return CPUStats{}, collectError("cpu_percent", err)
	}

	perCore, err := c.probes.cpuPercent(ctx, true)
	if err != nil {
		return CPUStats{}, collectError("cpu_percent", err)
	}

	count, err := c.probes.cpuCount(ctx)
	if err != nil {
		return CPUStats{}, collectError("cpu_count", err)
	}

	out := CPUStats{
		PerCoreUsagePercent: make([]float64, 0, len(perCore)),
		CoreCount:           count,
	}
	if len(total) > 0 {
		out.UsagePercent = round(total[0], 1)
	}
	for _, p := range perCore {
		out.PerCoreUsagePercent = append(out.PerCoreUsagePercent, round(p, 1))
	}

	// Frequency is optional
	infos, err := c.probes.cpuInfo(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("CPU frequency unavailable")
	} else if len(infos) > 0 && infos[0].Mhz > 0 {
		mhz := round(infos[0].Mhz, 2)
		out.FrequencyMHz = &mhz
	}

	return out, nil
}

func (c *Collector) networkStats(ctx context.Context) (NetworkStats, error) {
	counters, err := c.probes.netIO(ctx)
	if err != nil {
		return NetworkStats{}, collectError("network", err)
	}

	var out NetworkStats
	for _, n := range counters {
		out.BytesSent += n.BytesSent
		out.BytesReceived += n.BytesRecv
	}

	return out, nil
}

func osString(info *host.InfoStat) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{info.Platform, info.PlatformVersion, info.KernelArch} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s %s", runtime.GOOS, runtime.GOARCH)
	}

	return strings.Join(parts, " ")
}

func rootPath() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}

	return "/"
}

func gb(bytes uint64) float64 {
	return round(float64(bytes)/bytesPerGB, 2)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
