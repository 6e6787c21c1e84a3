//go:build windows

package stats

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var procGetSystemPowerStatus = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetSystemPowerStatus")

// systemPowerStatus mirrors SYSTEM_POWER_STATUS.
type systemPowerStatus struct {
	ACLineStatus        byte
	BatteryFlag         byte
	BatteryLifePercent  byte
	SystemStatusFlag    byte
	BatteryLifeTime     uint32
	BatteryFullLifeTime uint32
}

const (
	batteryFlagNoBattery = 128
	unknownStatus        = 255
)

func readBattery() BatteryStats {
	var out BatteryStats

	var status systemPowerStatus
	if r, _, _ := procGetSystemPowerStatus.Call(uintptr(unsafe.Pointer(&status))); r == 0 {
		return out
	}
	if status.BatteryFlag&batteryFlagNoBattery != 0 || status.BatteryFlag == unknownStatus {
		return out
	}

	if status.BatteryLifePercent != unknownStatus {
		pct := float64(status.BatteryLifePercent)
		out.ChargePercent = &pct
	}
	if status.ACLineStatus != unknownStatus {
		plugged := status.ACLineStatus == 1
		out.ACPlugged = &plugged
	}

	return out
}
