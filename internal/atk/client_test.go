package atk_test

import (
	"testing"

	"codeberg.org/mutker/atkctl/internal/atk"
	"codeberg.org/mutker/atkctl/internal/atk/atktest"
	"codeberg.org/mutker/atkctl/internal/errors"
	"codeberg.org/mutker/atkctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRead(t *testing.T) {
	transport := atktest.NewTransport().Set(atk.DeviceCPUMode, 3)
	client := atk.NewClient(transport, logger.Nop())

	value, err := client.Read(atk.DeviceCPUMode)
	require.NoError(t, err)
	assert.Equal(t, int32(3), value)

	sent := transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, atk.EncodeRead(atk.DeviceCPUMode), sent[0])
}

func TestClientWrite(t *testing.T) {
	transport := atktest.NewTransport()
	client := atk.NewClient(transport, logger.Nop())

	require.NoError(t, client.Write(atk.DeviceGPUEco, 1))

	sent := transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, atk.EncodeWrite(atk.DeviceGPUEco, 1), sent[0])

	transport.SetFailWrites(true)
	err := client.Write(atk.DeviceGPUEco, 0)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, atk.ErrTransferFailed))
}

func TestClientUnavailable(t *testing.T) {
	client := atk.NewClient(atktest.NewTransport().SetUnavailable(true), logger.Nop())

	_, err := client.Read(atk.DeviceCPUFan)
	require.Error(t, err)
	assert.True(t, atk.IsUnavailable(err))

	_, err = client.FanRPM(atk.DeviceCPUFan)
	assert.True(t, atk.IsUnavailable(err))
}

func TestClientFanRPM(t *testing.T) {
	tests := []struct {
		name    string
		reading int32
		set     bool
		want    int
		code    errors.ErrorCode
	}{
		{name: "half speed", reading: 33, set: true, want: 3300},
		{name: "full speed", reading: 100, set: true, want: 10000},
		{name: "stopped", reading: 0, set: true, code: atk.ErrValueOutOfRange},
		{name: "above range", reading: 101, set: true, code: atk.ErrValueOutOfRange},
		{name: "unsupported register", code: atk.ErrValueOutOfRange},
		{name: "negative", reading: -2, set: true, code: atk.ErrValueOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := atktest.NewTransport()
			if tt.set {
				transport.Set(atk.DeviceGPUFan, tt.reading)
			}
			client := atk.NewClient(transport, logger.Nop())

			rpm, err := client.FanRPM(atk.DeviceGPUFan)
			if tt.code != "" {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tt.code))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rpm)
		})
	}
}

func TestChannelUnavailableOffWindows(t *testing.T) {
	ch := atk.NewChannel(`\\.\NoSuchDevice`)
	assert.Equal(t, `\\.\NoSuchDevice`, ch.Path())
	assert.False(t, ch.Available())

	_, err := ch.Send(atk.EncodeRead(atk.DeviceCPUFan))
	require.Error(t, err)
	assert.True(t, atk.IsUnavailable(err))
}
