package thermal

import "codeberg.org/mutker/atkctl/internal/sensor"

// Snapshot is one merged thermal reading. Nil fields had no source and
// encode as JSON null.
type Snapshot struct {
	CPUPackageTemp *float64 `json:"cpu_package_temp_celsius"`
	CPUCoreAvgTemp *float64 `json:"cpu_core_avg_celsius"`
	CPUCoreMaxTemp *float64 `json:"cpu_core_max_celsius"`
	CPUFanRPM      *int     `json:"cpu_fan_rpm"`
	CPUFanPercent  *float64 `json:"cpu_fan_percent"`
	GPUCoreTemp    *float64 `json:"gpu_core_temp_celsius"`
	GPUHotspotTemp *float64 `json:"gpu_hotspot_celsius"`
	GPUFanRPM      *int     `json:"gpu_fan_rpm"`
	GPUFanPercent  *float64 `json:"gpu_fan_percent"`
}

// FanPercent converts an RPM reading to a percentage of maxRPM rounded to
// one decimal. A nil reading or non-positive maximum gives nil.
func FanPercent(rpm *int, maxRPM int) *float64 {
	if rpm == nil || maxRPM <= 0 {
		return nil
	}

	v := sensor.Round1(float64(*rpm) / float64(maxRPM) * 100)

	return &v
}

// firstOf returns the first non-nil value.
func firstOf(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}

	return nil
}
