package stats

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const powerSupplyRoot = "/sys/class/power_supply"

// readSysfsBattery reads the first BAT* supply under root. AC state comes
// from a Mains supply when one exists, otherwise from the battery status.
func readSysfsBattery(root string) BatteryStats {
	var out BatteryStats

	batteries, _ := filepath.Glob(filepath.Join(root, "BAT*"))
	for _, dir := range batteries {
		pct, err := readFloat(filepath.Join(dir, "capacity"))
		if err != nil {
			continue
		}
		pct = round(pct, 1)
		out.ChargePercent = &pct

		if plugged, ok := mainsOnline(root); ok {
			out.ACPlugged = &plugged
		} else if status, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
			plugged := strings.TrimSpace(string(status)) != "Discharging"
			out.ACPlugged = &plugged
		}

		break
	}

	return out
}

func mainsOnline(root string) (bool, bool) {
	supplies, err := os.ReadDir(root)
	if err != nil {
		return false, false
	}

	for _, s := range supplies {
		typ, err := os.ReadFile(filepath.Join(root, s.Name(), "type"))
		if err != nil || strings.TrimSpace(string(typ)) != "Mains" {
			continue
		}
		online, err := readFloat(filepath.Join(root, s.Name(), "online"))
		if err != nil {
			continue
		}
		return online == 1, true
	}

	return false, false
}

func readFloat(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
}
