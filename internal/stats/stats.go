package stats

import (
	"codeberg.org/mutker/atkctl/internal/mode"
	"codeberg.org/mutker/atkctl/internal/thermal"
)

type SystemInfo struct {
	OS            string  `json:"os"`
	Hostname      string  `json:"hostname"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type CPUStats struct {
	UsagePercent        float64   `json:"usage_percent"`
	PerCoreUsagePercent []float64 `json:"per_core_usage_percent"`
	CoreCount           int       `json:"core_count"`
	FrequencyMHz        *float64  `json:"frequency_mhz"`
}

type MemoryStats struct {
	TotalGB     float64 `json:"total_gb"`
	UsedPercent float64 `json:"used_percent"`
	AvailableGB float64 `json:"available_gb"`
}

type DiskStats struct {
	TotalGB     float64 `json:"total_gb"`
	UsedPercent float64 `json:"used_percent"`
}

type NetworkStats struct {
	BytesSent     uint64 `json:"bytes_sent"`
	BytesReceived uint64 `json:"bytes_received"`
}

// BatteryStats is empty on machines without a battery.
type BatteryStats struct {
	ChargePercent *float64 `json:"charge_percent"`
	ACPlugged     *bool    `json:"ac_plugged"`
}

// SystemStats is the full report.
type SystemStats struct {
	System  SystemInfo       `json:"system"`
	CPU     CPUStats         `json:"cpu"`
	Memory  MemoryStats      `json:"memory"`
	Disk    DiskStats        `json:"disk"`
	Network NetworkStats     `json:"network"`
	Thermal thermal.Snapshot `json:"thermal"`
	Modes   mode.State       `json:"modes"`
	Battery BatteryStats     `json:"battery"`
}
