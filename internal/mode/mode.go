package mode

import (
	"encoding/json"
	"strings"
)

// CPUMode is the firmware performance profile. The zero value means unknown.
type CPUMode string

const (
	CPUUnknown     CPUMode = ""
	CPUSilent      CPUMode = "Silent"
	CPUBalanced    CPUMode = "Balanced"
	CPUTurbo       CPUMode = "Turbo"
	CPUPerformance CPUMode = "Performance"
	CPUManual      CPUMode = "Manual"
)

// GPUMode is the graphics switching state. The zero value means unknown.
type GPUMode string

const (
	GPUUnknown  GPUMode = ""
	GPUEco      GPUMode = "Eco"
	GPUStandard GPUMode = "Standard"
	GPUUltimate GPUMode = "Ultimate"
)

// State is the pair of modes reported to callers.
type State struct {
	CPU CPUMode `json:"cpu_mode"`
	GPU GPUMode `json:"gpu_mode"`
}

// Values the CPU mode register reports.
var cpuModeByRegister = map[int32]CPUMode{
	0: CPUBalanced,
	1: CPUTurbo,
	2: CPUSilent,
	3: CPUPerformance,
	4: CPUManual,
}

// Values accepted by a CPU mode register write. Manual cannot be written.
var cpuWriteCode = map[CPUMode]uint32{
	CPUBalanced:    0,
	CPUTurbo:       1,
	CPUSilent:      2,
	CPUPerformance: 3,
}

var cpuModes = []CPUMode{CPUSilent, CPUBalanced, CPUTurbo, CPUPerformance, CPUManual}

var gpuModes = []GPUMode{GPUEco, GPUStandard, GPUUltimate}

// ParseCPUMode matches a mode name case-insensitively.
func ParseCPUMode(name string) (CPUMode, bool) {
	name = strings.TrimSpace(name)
	for _, m := range cpuModes {
		if strings.EqualFold(name, string(m)) {
			return m, true
		}
	}

	return CPUUnknown, false
}

// ParseGPUMode matches a mode name case-insensitively.
func ParseGPUMode(name string) (GPUMode, bool) {
	name = strings.TrimSpace(name)
	for _, m := range gpuModes {
		if strings.EqualFold(name, string(m)) {
			return m, true
		}
	}

	return GPUUnknown, false
}

// CPUModeFromRegister maps a decoded register value to a mode.
func CPUModeFromRegister(value int32) CPUMode {
	return cpuModeByRegister[value]
}

// Writable reports whether the mode can be set through the driver.
func (m CPUMode) Writable() bool {
	_, ok := cpuWriteCode[m]
	return ok
}

// Writable reports whether the mode can be set without a reboot.
func (m GPUMode) Writable() bool {
	return m == GPUEco || m == GPUStandard
}

func (m CPUMode) Known() bool { return m != CPUUnknown }

func (m GPUMode) Known() bool { return m != GPUUnknown }

func (m CPUMode) MarshalJSON() ([]byte, error) {
	return marshalName(string(m))
}

func (m *CPUMode) UnmarshalJSON(data []byte) error {
	name, err := unmarshalName(data)
	if err != nil {
		return err
	}
	*m = CPUMode(name)

	return nil
}

func (m GPUMode) MarshalJSON() ([]byte, error) {
	return marshalName(string(m))
}

func (m *GPUMode) UnmarshalJSON(data []byte) error {
	name, err := unmarshalName(data)
	if err != nil {
		return err
	}
	*m = GPUMode(name)

	return nil
}

// Unknown modes travel as JSON null.
func marshalName(name string) ([]byte, error) {
	if name == "" {
		return []byte("null"), nil
	}

	return json.Marshal(name)
}

func unmarshalName(data []byte) (string, error) {
	if string(data) == "null" {
		return "", nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return "", err
	}

	return name, nil
}
