//go:build windows

package sensor

import (
	"codeberg.org/mutker/atkctl/internal/errors"
	"github.com/yusufpapurcu/wmi"
)

// DefaultNamespace is where LibreHardwareMonitor publishes its WMI provider.
const DefaultNamespace = `root\LibreHardwareMonitor`

type lhmHardware struct {
	Identifier   string
	Name         string
	HardwareType string
	Parent       string
}

type lhmSensor struct {
	Identifier string
	Name       string
	SensorType string
	Parent     string
	Value      float32
}

type wmiSource struct {
	namespace string
}

// NewWMISource reads the hardware tree LibreHardwareMonitor publishes over
// WMI. LibreHardwareMonitor must be running with its WMI provider enabled.
func NewWMISource(namespace string) Source {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &wmiSource{namespace: namespace}
}

func (s *wmiSource) Hardware() ([]Hardware, error) {
	var dst []lhmHardware
	if err := wmi.QueryNamespace(
		"SELECT Identifier, Name, HardwareType, Parent FROM Hardware", &dst, s.namespace,
	); err != nil {
		return nil, errors.New().Wrap(ErrQueryFailed, err)
	}

	out := make([]Hardware, 0, len(dst))
	for _, hw := range dst {
		out = append(out, Hardware{
			Identifier: hw.Identifier,
			Name:       hw.Name,
			Type:       hw.HardwareType,
			Parent:     hw.Parent,
		})
	}

	return out, nil
}

func (s *wmiSource) Sensors() ([]Sensor, error) {
	var dst []lhmSensor
	if err := wmi.QueryNamespace(
		"SELECT Identifier, Name, SensorType, Parent, Value FROM Sensor", &dst, s.namespace,
	); err != nil {
		return nil, errors.New().Wrap(ErrQueryFailed, err)
	}

	out := make([]Sensor, 0, len(dst))
	for _, sn := range dst {
		out = append(out, Sensor{
			Identifier: sn.Identifier,
			Name:       sn.Name,
			Type:       sn.SensorType,
			Parent:     sn.Parent,
			Value:      float64(sn.Value),
		})
	}

	return out, nil
}
