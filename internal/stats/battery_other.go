//go:build !linux && !windows

package stats

func readBattery() BatteryStats {
	return BatteryStats{}
}
