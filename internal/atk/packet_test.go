package atk_test

import (
	"encoding/binary"
	"testing"

	"codeberg.org/mutker/atkctl/internal/atk"
	"github.com/stretchr/testify/assert"
)

func replyWith(raw int32) atk.Reply {
	var r atk.Reply
	binary.LittleEndian.PutUint32(r[0:4], uint32(raw))

	return r
}

func TestEncodeReadLayout(t *testing.T) {
	cmd := atk.EncodeRead(atk.DeviceCPUFan)

	expected := atk.Command{
		0x44, 0x53, 0x54, 0x53, // DSTS
		0x08, 0x00, 0x00, 0x00, // argument length
		0x13, 0x00, 0x11, 0x00, // device id
		0x00, 0x00, 0x00, 0x00, // reserved
	}
	assert.Equal(t, expected, cmd)
	assert.Equal(t, atk.MethodDSTS, cmd.Method())
	assert.Equal(t, atk.DeviceCPUFan, cmd.Device())
	assert.Equal(t, "DSTS", cmd.Method().String())
}

func TestEncodeWriteLayout(t *testing.T) {
	cmd := atk.EncodeWrite(atk.DeviceCPUMode, 1)

	expected := atk.Command{
		0x44, 0x45, 0x56, 0x53, // DEVS
		0x08, 0x00, 0x00, 0x00,
		0x75, 0x00, 0x12, 0x00,
		0x01, 0x00, 0x00, 0x00,
	}
	assert.Equal(t, expected, cmd)
	assert.Equal(t, "DEVS", cmd.Method().String())
	assert.Equal(t, uint32(1), cmd.Value())
}

func TestDecodeVectors(t *testing.T) {
	tests := []struct {
		name string
		raw  int32
		want int32
	}{
		{name: "biased positive", raw: 65536 + 3, want: 3},
		{name: "biased negative", raw: 65536 - 3, want: -3},
		{name: "empty reply", raw: 0, want: 0},
		{name: "bias only", raw: 65536, want: 0},
		{name: "unbiased negative", raw: -2, want: -2},
		{name: "fan reading", raw: 65536 + 33, want: 33},
		{name: "saturates high", raw: 1 << 30, want: 65535},
		{name: "saturates low", raw: -(1 << 30), want: -65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, atk.Decode(replyWith(tt.raw)))
		})
	}
}

func TestDecodeUnsupportedMarker(t *testing.T) {
	var r atk.Reply
	binary.LittleEndian.PutUint32(r[0:4], atk.RawUnsupported)

	assert.Equal(t, int32(-2), atk.Decode(r))
}

func TestDecodeIsTotal(t *testing.T) {
	for b := 0; b < 256; b++ {
		var r atk.Reply
		for i := range r {
			r[i] = byte(b)
		}

		assert.NotPanics(t, func() {
			v := atk.Decode(r)
			assert.GreaterOrEqual(t, v, int32(-65536))
			assert.LessOrEqual(t, v, int32(65535))
		})

		// Only the first word matters
		first := replyWith(int32(binary.LittleEndian.Uint32(r[0:4])))
		assert.Equal(t, atk.Decode(first), atk.Decode(r))
	}

	for raw := int32(-70000); raw <= 140000; raw += 7 {
		v := atk.Decode(replyWith(raw))
		assert.GreaterOrEqual(t, v, int32(-65536))
		assert.LessOrEqual(t, v, int32(65535))
	}
}

func TestDeviceNames(t *testing.T) {
	assert.Equal(t, "cpu_fan", atk.DeviceCPUFan.String())
	assert.Equal(t, "gpu_mux", atk.DeviceGPUMux.String())
	assert.Equal(t, "unknown", atk.DeviceID(0xdeadbeef).String())
}
