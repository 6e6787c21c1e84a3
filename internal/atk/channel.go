package atk

import "codeberg.org/mutker/atkctl/internal/errors"

// ioctlWMIFunction is IOCTL_ATK_ACPI_WMIFUNCTION.
const ioctlWMIFunction = 0x0022240C

// Transport performs a single request/response exchange with the driver.
type Transport interface {
	Send(cmd Command) (Reply, error)
}

// Channel talks to the ATK ACPI driver through its device file. Every Send
// opens and closes its own handle, so a Channel is safe for concurrent use.
type Channel struct {
	path string
}

// NewChannel returns a channel for the device at path, for example \\.\ATKACPI.
func NewChannel(path string) *Channel {
	return &Channel{path: path}
}

// Path returns the device path.
func (c *Channel) Path() string {
	return c.path
}

// Send issues one control transfer.
func (c *Channel) Send(cmd Command) (Reply, error) {
	return c.send(cmd)
}

// Available reports whether the device can be opened right now.
func (c *Channel) Available() bool {
	return c.probe() == nil
}

// checkReplyLength rejects a transfer that returned too few bytes to hold a
// value. An all-zero buffer would otherwise decode as a real 0.
func checkReplyLength(returned uint32) error {
	if returned < ReplyMinLength {
		return errors.New().WithData(ErrTransferFailed, struct {
			Returned uint32
		}{
			Returned: returned,
		})
	}

	return nil
}
