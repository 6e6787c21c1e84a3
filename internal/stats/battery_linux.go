//go:build linux

package stats

func readBattery() BatteryStats {
	return readSysfsBattery(powerSupplyRoot)
}
