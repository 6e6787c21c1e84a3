package sensor

import (
	"context"
	"math"
)

// CPUThermal is a partial CPU reading. Nil fields were not reported.
type CPUThermal struct {
	PackageTemp *float64
	CoreAvgTemp *float64
	CoreMaxTemp *float64
	FanRPM      *float64
}

// GPUThermal is a partial GPU reading. Nil fields were not reported.
type GPUThermal struct {
	CoreTemp    *float64
	HotspotTemp *float64
	FanRPM      *float64
	FanPercent  *float64
}

// Backend is one source of thermal readings. Reads never fail: anything the
// backend cannot supply is left nil.
type Backend interface {
	Name() string
	ReadCPU(ctx context.Context) CPUThermal
	ReadGPU(ctx context.Context) GPUThermal
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr(v float64) *float64 {
	return &v
}
