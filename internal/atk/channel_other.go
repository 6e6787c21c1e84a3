//go:build !windows

package atk

import "codeberg.org/mutker/atkctl/internal/errors"

// The ATK ACPI device file only exists on Windows.

func (c *Channel) send(Command) (Reply, error) {
	return Reply{}, c.probe()
}

func (c *Channel) probe() error {
	return errors.New().WithData(ErrDeviceUnavailable, "not supported on this platform")
}
