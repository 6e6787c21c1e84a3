package atk

import "codeberg.org/mutker/atkctl/internal/errors"

const (
	// Channel errors
	ErrDeviceUnavailable = errors.ErrorCode("atk_device_unavailable")
	ErrTransferFailed    = errors.ErrorCode("atk_transfer_failed")

	// Value errors
	ErrValueOutOfRange = errors.ErrorCode("atk_value_out_of_range")
)

func init() {
	errors.RegisterMessages(map[errors.ErrorCode]string{
		ErrDeviceUnavailable: "ATK ACPI device unavailable",
		ErrTransferFailed:    "ATK ACPI control transfer failed",
		ErrValueOutOfRange:   "ATK ACPI value out of range",
	})
}

// IsUnavailable reports whether err means the driver could not be opened.
func IsUnavailable(err error) bool {
	return errors.HasCode(err, ErrDeviceUnavailable)
}
