package atk

import (
	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
)

const (
	// The fan registers report speed in hundreds of RPM.
	fanRPMScale   = 100
	maxFanReading = 100
)

// Client reads and writes driver registers through a Transport.
type Client struct {
	transport Transport
	logger    logger.Logger
}

func NewClient(transport Transport, log logger.Logger) *Client {
	return &Client{
		transport: transport,
		logger:    log,
	}
}

// Read returns the decoded value of a register.
func (c *Client) Read(id DeviceID) (int32, error) {
	reply, err := c.transport.Send(EncodeRead(id))
	if err != nil {
		c.logger.Debug().Err(err).Str("device", id.String()).Msg("DSTS failed")
		return 0, err
	}

	value := Decode(reply)
	c.logger.Debug().Str("device", id.String()).Int32("value", value).Msg("DSTS")

	return value, nil
}

// Write sets a register. Success only means the driver accepted the
// transfer; the driver does not confirm the new value.
func (c *Client) Write(id DeviceID, value uint32) error {
	if _, err := c.transport.Send(EncodeWrite(id, value)); err != nil {
		c.logger.Debug().Err(err).Str("device", id.String()).Uint32("value", value).Msg("DEVS failed")
		return err
	}

	c.logger.Debug().Str("device", id.String()).Uint32("value", value).Msg("DEVS")

	return nil
}

// FanRPM reads a fan register and converts it to RPM. Readings outside
// 1..100 hundred RPM are reported as ErrValueOutOfRange.
func (c *Client) FanRPM(id DeviceID) (int, error) {
	value, err := c.Read(id)
	if err != nil {
		return 0, err
	}

	if value <= 0 || value > maxFanReading {
		return 0, errors.New().WithData(ErrValueOutOfRange, struct {
			Device string
			Value  int32
		}{
			Device: id.String(),
			Value:  value,
		})
	}

	return int(value) * fanRPMScale, nil
}
