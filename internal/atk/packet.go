package atk

import "encoding/binary"

// PacketSize is the size of both the command and the reply buffer.
const PacketSize = 16

// Method is a driver method code, four ASCII characters packed little-endian.
type Method uint32

const (
	// MethodDSTS reads a device register ("DSTS").
	MethodDSTS Method = 0x53545344
	// MethodDEVS writes a device register ("DEVS").
	MethodDEVS Method = 0x53564544
)

func (m Method) String() string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(m))

	return string(b[:])
}

// DeviceID identifies one driver register. The values carry no meaning
// beyond the driver's own.
type DeviceID uint32

const (
	DeviceCPUFan  DeviceID = 0x00110013
	DeviceGPUFan  DeviceID = 0x00110014
	DeviceCPUMode DeviceID = 0x00120075
	DeviceGPUEco  DeviceID = 0x00090020
	DeviceGPUMux  DeviceID = 0x00090016
)

var deviceNames = map[DeviceID]string{
	DeviceCPUFan:  "cpu_fan",
	DeviceGPUFan:  "gpu_fan",
	DeviceCPUMode: "cpu_mode",
	DeviceGPUEco:  "gpu_eco",
	DeviceGPUMux:  "gpu_mux",
}

func (id DeviceID) String() string {
	if name, ok := deviceNames[id]; ok {
		return name
	}

	return "unknown"
}

const (
	argumentLength = 8
	replyBias      = 65536

	minDecoded = -replyBias
	maxDecoded = replyBias - 1

	// ReplyMinLength is the number of reply bytes that carry the value.
	ReplyMinLength = 4
)

// RawUnsupported is the unbiased word the firmware answers for a register
// it does not implement. It decodes to -2.
const RawUnsupported uint32 = 0xFFFFFFFE

// Command is one request packet:
// [method u32][argument length u32][device id u32][value u32], all little-endian.
type Command [PacketSize]byte

// Reply is the raw driver output buffer.
type Reply [PacketSize]byte

func (c Command) Method() Method {
	return Method(binary.LittleEndian.Uint32(c[0:4]))
}

func (c Command) Device() DeviceID {
	return DeviceID(binary.LittleEndian.Uint32(c[8:12]))
}

func (c Command) Value() uint32 {
	return binary.LittleEndian.Uint32(c[12:16])
}

func encode(method Method, id DeviceID, value uint32) Command {
	var c Command
	binary.LittleEndian.PutUint32(c[0:4], uint32(method))
	binary.LittleEndian.PutUint32(c[4:8], argumentLength)
	binary.LittleEndian.PutUint32(c[8:12], uint32(id))
	binary.LittleEndian.PutUint32(c[12:16], value)

	return c
}

// EncodeRead builds a DSTS packet for the given register.
func EncodeRead(id DeviceID) Command {
	return encode(MethodDSTS, id, 0)
}

// EncodeWrite builds a DEVS packet carrying value in the last word.
func EncodeWrite(id DeviceID, value uint32) Command {
	return encode(MethodDEVS, id, value)
}

// Decode extracts the signed value from a reply. The driver adds 65536 to
// present values; a reply without that bias is folded back so that an empty
// buffer decodes to 0. The result is always within [-65536, 65535].
func Decode(r Reply) int32 {
	raw := int64(int32(binary.LittleEndian.Uint32(r[0:4])))

	value := raw - replyBias
	if value <= minDecoded {
		value += replyBias
	}

	switch {
	case value < minDecoded:
		return minDecoded
	case value > maxDecoded:
		return maxDecoded
	}

	return int32(value)
}
