//go:build !windows

package sensor

import "codeberg.org/mutker/atkctl/internal/errors"

const DefaultNamespace = `root\LibreHardwareMonitor`

type unavailableSource struct{}

// NewWMISource returns a source that always fails; LibreHardwareMonitor is
// Windows-only.
func NewWMISource(string) Source {
	return unavailableSource{}
}

func (unavailableSource) Hardware() ([]Hardware, error) {
	return nil, errors.New().WithData(ErrSourceUnavailable, "not supported on this platform")
}

func (unavailableSource) Sensors() ([]Sensor, error) {
	return nil, errors.New().WithData(ErrSourceUnavailable, "not supported on this platform")
}
