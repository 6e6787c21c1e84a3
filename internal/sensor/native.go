package sensor

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"codeberg.org/mutker/atkctl/internal/logger"
	"github.com/shirou/gopsutil/v3/host"
)

// DefaultHwmonRoot is where Linux exposes hwmon devices.
const DefaultHwmonRoot = "/sys/class/hwmon"

// Sensor families tried in order for the CPU temperature.
var cpuFamilies = []string{"coretemp", "k10temp", "cpu_thermal", "acpitz"}

// TemperatureFunc lists temperature sensors.
type TemperatureFunc func(ctx context.Context) ([]host.TemperatureStat, error)

// NativeOption configures a Native backend.
type NativeOption func(*Native)

// WithTemperatureFunc replaces the gopsutil temperature query.
func WithTemperatureFunc(fn TemperatureFunc) NativeOption {
	return func(n *Native) {
		n.temperatures = fn
	}
}

// WithHwmonRoot changes the directory scanned for fan inputs.
func WithHwmonRoot(root string) NativeOption {
	return func(n *Native) {
		n.hwmonRoot = root
	}
}

// Native reads CPU temperature and fan speed from OS sensors.
type Native struct {
	temperatures TemperatureFunc
	hwmonRoot    string
	logger       logger.Logger
}

func NewNative(log logger.Logger, opts ...NativeOption) *Native {
	n := &Native{
		temperatures: host.SensorsTemperaturesWithContext,
		hwmonRoot:    DefaultHwmonRoot,
		logger:       log,
	}
	for _, opt := range opts {
		opt(n)
	}

	return n
}

func (*Native) Name() string {
	return "native"
}

// ReadCPU reports the CPU temperature as PackageTemp and the first fan.
func (n *Native) ReadCPU(ctx context.Context) CPUThermal {
	return CPUThermal{
		PackageTemp: n.cpuTemperature(ctx),
		FanRPM:      n.fanRPM(),
	}
}

// ReadGPU reports nothing; on this platform GPU figures come from NVML.
func (*Native) ReadGPU(context.Context) GPUThermal {
	return GPUThermal{}
}

// cpuTemperature averages the first preferred sensor family present, or
// falls back to the first reading of any family.
func (n *Native) cpuTemperature(ctx context.Context) *float64 {
	temps, err := n.temperatures(ctx)
	if len(temps) == 0 {
		if err != nil {
			n.logger.Debug().Err(err).Msg("Failed to read temperature sensors")
		}
		return nil
	}
	// gopsutil returns partial results alongside warnings
	if err != nil {
		n.logger.Debug().Err(err).Msg("Temperature sensors reported warnings")
	}

	for _, family := range cpuFamilies {
		var sum float64
		var count int
		for _, t := range temps {
			if inFamily(t.SensorKey, family) {
				sum += t.Temperature
				count++
			}
		}
		if count > 0 {
			return ptr(Round1(sum / float64(count)))
		}
	}

	return ptr(Round1(temps[0].Temperature))
}

func inFamily(key, family string) bool {
	return key == family || strings.HasPrefix(key, family+"_")
}

// fanRPM returns the first fan*_input of the first hwmon device exposing one.
func (n *Native) fanRPM() *float64 {
	devices, err := os.ReadDir(n.hwmonRoot)
	if err != nil {
		n.logger.Debug().Err(err).Str("path", n.hwmonRoot).Msg("No hwmon devices")
		return nil
	}

	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, d.Name())
	}
	sortNatural(names)

	for _, name := range names {
		inputs, err := filepath.Glob(filepath.Join(n.hwmonRoot, name, "fan*_input"))
		if err != nil || len(inputs) == 0 {
			continue
		}
		sortNatural(inputs)

		for _, input := range inputs {
			data, err := os.ReadFile(input)
			if err != nil {
				continue
			}
			rpm, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
			if err != nil {
				continue
			}
			return ptr(rpm)
		}
	}

	return nil
}

// sortNatural orders names by their first number, so hwmon2 comes before
// hwmon10 and fan2_input before fan10_input.
func sortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		pi, ni := splitIndex(filepath.Base(names[i]))
		pj, nj := splitIndex(filepath.Base(names[j]))
		if pi == pj && ni != nj {
			return ni < nj
		}

		return names[i] < names[j]
	})
}

// splitIndex returns the text before the first digit run and its value, or
// -1 when there is none.
func splitIndex(name string) (string, int) {
	start := strings.IndexAny(name, "0123456789")
	if start < 0 {
		return name, -1
	}

	end := start
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(name[start:end])
	if err != nil {
		return name, -1
	}

	return name[:start], n
}
