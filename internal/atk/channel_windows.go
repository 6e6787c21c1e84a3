//go:build windows

package atk

import (
	"codeberg.org/mutker/atkctl/internal/errors"
	"golang.org/x/sys/windows"
)

func (c *Channel) open() (windows.Handle, error) {
	errFactory := errors.New()

	path, err := windows.UTF16PtrFromString(c.path)
	if err != nil {
		return windows.InvalidHandle, errFactory.Wrap(ErrDeviceUnavailable, err)
	}

	handle, err := windows.CreateFile(
		path,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return windows.InvalidHandle, errFactory.Wrap(ErrDeviceUnavailable, err)
	}

	return handle, nil
}

func (c *Channel) send(cmd Command) (Reply, error) {
	var reply Reply

	handle, err := c.open()
	if err != nil {
		return reply, err
	}
	defer windows.CloseHandle(handle)

	var returned uint32
	err = windows.DeviceIoControl(
		handle,
		ioctlWMIFunction,
		&cmd[0], uint32(len(cmd)),
		&reply[0], uint32(len(reply)),
		&returned,
		nil,
	)
	if err != nil {
		return Reply{}, errors.New().Wrap(ErrTransferFailed, err)
	}
	if err := checkReplyLength(returned); err != nil {
		return Reply{}, err
	}

	return reply, nil
}

func (c *Channel) probe() error {
	handle, err := c.open()
	if err != nil {
		return err
	}

	return windows.CloseHandle(handle)
}
