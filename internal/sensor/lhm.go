package sensor

import (
	"context"

	"codeberg.org/mutker/atkctl/internal/logger"
)

// LibreHardwareMonitor hardware and sensor type names.
const (
	HardwareCPU       = "Cpu"
	HardwareGPUNvidia = "GpuNvidia"
	HardwareGPUAmd    = "GpuAmd"
	HardwareGPUIntel  = "GpuIntel"

	SensorTemperature = "Temperature"
	SensorFan         = "Fan"
	SensorControl     = "Control"
)

const (
	sensorCPUPackage  = "CPU Package"
	sensorCoreAverage = "Core Average"
	sensorCoreMax     = "Core Max"
	sensorGPUCore     = "GPU Core"
	sensorGPUHotSpot  = "GPU Hot Spot"
)

// Hardware is one LibreHardwareMonitor hardware node. Parent is empty for
// top-level nodes.
type Hardware struct {
	Identifier string
	Name       string
	Type       string
	Parent     string
}

// Sensor is one value published by a hardware node. Parent is the
// identifier of the owning node.
type Sensor struct {
	Identifier string
	Name       string
	Type       string
	Parent     string
	Value      float64
}

// Source enumerates the hardware tree. Each call opens its own session.
type Source interface {
	Hardware() ([]Hardware, error)
	Sensors() ([]Sensor, error)
}

// DumpEntry is one line of a full sensor listing.
type DumpEntry struct {
	Hardware string  `json:"hardware"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
}

// VendorLibrary reads CPU and GPU sensors from LibreHardwareMonitor.
type VendorLibrary struct {
	source Source
	logger logger.Logger
}

func NewVendorLibrary(source Source, log logger.Logger) *VendorLibrary {
	return &VendorLibrary{
		source: source,
		logger: log,
	}
}

func (*VendorLibrary) Name() string {
	return "librehardwaremonitor"
}

// Available reports whether the source answers and lists any hardware.
func (v *VendorLibrary) Available() bool {
	hw, err := v.source.Hardware()
	return err == nil && len(hw) > 0
}

// tree is one consistent enumeration of nodes and their sensors.
type tree struct {
	hardware []Hardware
	sensors  map[string][]Sensor
}

func (v *VendorLibrary) load() (*tree, bool) {
	hw, err := v.source.Hardware()
	if err != nil {
		v.logger.Debug().Err(err).Msg("Failed to enumerate hardware")
		return nil, false
	}

	sensors, err := v.source.Sensors()
	if err != nil {
		v.logger.Debug().Err(err).Msg("Failed to enumerate sensors")
		return nil, false
	}

	return newTree(hw, sensors), true
}

func newTree(hw []Hardware, sensors []Sensor) *tree {
	t := &tree{
		hardware: hw,
		sensors:  make(map[string][]Sensor, len(hw)),
	}
	for _, s := range sensors {
		t.sensors[s.Parent] = append(t.sensors[s.Parent], s)
	}

	return t
}

func (t *tree) children(id string) []Hardware {
	var out []Hardware
	for _, hw := range t.hardware {
		if hw.Parent == id {
			out = append(out, hw)
		}
	}

	return out
}

// ReadCPU reads package, core average and core max temperatures plus the
// first fan on a CPU node or its sub-nodes.
func (v *VendorLibrary) ReadCPU(_ context.Context) CPUThermal {
	var out CPUThermal

	t, ok := v.load()
	if !ok {
		return out
	}

	for _, hw := range t.hardware {
		if hw.Type != HardwareCPU {
			continue
		}

		for _, s := range t.sensors[hw.Identifier] {
			switch {
			case s.Type == SensorTemperature && s.Name == sensorCPUPackage:
				out.PackageTemp = ptr(Round1(s.Value))
			case s.Type == SensorTemperature && s.Name == sensorCoreAverage:
				out.CoreAvgTemp = ptr(Round1(s.Value))
			case s.Type == SensorTemperature && s.Name == sensorCoreMax:
				out.CoreMaxTemp = ptr(Round1(s.Value))
			case s.Type == SensorFan && out.FanRPM == nil:
				out.FanRPM = ptr(Round1(s.Value))
			}
		}

		for _, sub := range t.children(hw.Identifier) {
			for _, s := range t.sensors[sub.Identifier] {
				if s.Type == SensorFan && out.FanRPM == nil {
					out.FanRPM = ptr(Round1(s.Value))
				}
			}
		}
	}

	return out
}

// ReadGPU reads the first GPU node only.
func (v *VendorLibrary) ReadGPU(_ context.Context) GPUThermal {
	var out GPUThermal

	t, ok := v.load()
	if !ok {
		return out
	}

	for _, hw := range t.hardware {
		if !isGPU(hw.Type) {
			continue
		}

		for _, s := range t.sensors[hw.Identifier] {
			switch s.Type {
			case SensorTemperature:
				if s.Name == sensorGPUCore && out.CoreTemp == nil {
					out.CoreTemp = ptr(Round1(s.Value))
				} else if s.Name == sensorGPUHotSpot && out.HotspotTemp == nil {
					out.HotspotTemp = ptr(Round1(s.Value))
				}
			case SensorFan:
				if out.FanRPM == nil {
					out.FanRPM = ptr(Round1(s.Value))
				}
			case SensorControl:
				if out.FanPercent == nil {
					out.FanPercent = ptr(Round1(s.Value))
				}
			}
		}

		break
	}

	return out
}

// Dump lists every sensor of every node. Sub-node sensors are labelled
// "parent / child".
func (v *VendorLibrary) Dump() ([]DumpEntry, error) {
	hw, err := v.source.Hardware()
	if err != nil {
		return nil, err
	}

	sensors, err := v.source.Sensors()
	if err != nil {
		return nil, err
	}

	t := newTree(hw, sensors)

	var out []DumpEntry
	for _, node := range t.hardware {
		if node.Parent != "" {
			continue
		}

		out = appendDump(out, node.Name, t.sensors[node.Identifier])
		for _, sub := range t.children(node.Identifier) {
			out = appendDump(out, node.Name+" / "+sub.Name, t.sensors[sub.Identifier])
		}
	}

	return out, nil
}

func appendDump(out []DumpEntry, label string, sensors []Sensor) []DumpEntry {
	for _, s := range sensors {
		out = append(out, DumpEntry{
			Hardware: label,
			Type:     s.Type,
			Name:     s.Name,
			Value:    s.Value,
		})
	}

	return out
}

func isGPU(hardwareType string) bool {
	switch hardwareType {
	case HardwareGPUNvidia, HardwareGPUAmd, HardwareGPUIntel:
		return true
	default:
		return false
	}
}
