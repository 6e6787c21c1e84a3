// Package atktest provides an in-memory ATK ACPI driver for tests.
package atktest

import (
	"encoding/binary"
	"sync"

	"codeberg.org/mutker/atkctl/internal/atk"
	"codeberg.org/mutker/atkctl/internal/errors"
)

// Transport emulates the driver. Registers hold decoded values; replies are
// encoded with the driver's +65536 bias. Registers never set answer like
// unimplemented firmware registers. Writes are accepted but, like the
// real firmware, are not echoed back by later reads unless EchoWrites is set.
type Transport struct {
	mu sync.Mutex

	registers   map[atk.DeviceID]int32
	unavailable bool
	failWrites  bool
	failReads   bool
	echoWrites  bool
	sent        []atk.Command
}

func NewTransport() *Transport {
	return &Transport{registers: make(map[atk.DeviceID]int32)}
}

// Set stores the value a register reports.
func (t *Transport) Set(id atk.DeviceID, value int32) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registers[id] = value

	return t
}

// SetUnavailable makes every exchange fail as if the driver were missing.
func (t *Transport) SetUnavailable(v bool) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unavailable = v

	return t
}

// SetFailWrites makes DEVS transfers fail.
func (t *Transport) SetFailWrites(v bool) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failWrites = v

	return t
}

// SetFailReads makes DSTS transfers fail.
func (t *Transport) SetFailReads(v bool) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failReads = v

	return t
}

// SetEchoWrites makes accepted writes visible to later reads.
func (t *Transport) SetEchoWrites(v bool) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.echoWrites = v

	return t
}

func (t *Transport) Send(cmd atk.Command) (atk.Reply, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	errFactory := errors.New()
	t.sent = append(t.sent, cmd)

	if t.unavailable {
		return atk.Reply{}, errFactory.New(atk.ErrDeviceUnavailable)
	}

	switch cmd.Method() {
	case atk.MethodDEVS:
		if t.failWrites {
			return atk.Reply{}, errFactory.New(atk.ErrTransferFailed)
		}
		if t.echoWrites {
			t.registers[cmd.Device()] = int32(cmd.Value())
		}
		return encodeReply(1), nil
	case atk.MethodDSTS:
		if t.failReads {
			return atk.Reply{}, errFactory.New(atk.ErrTransferFailed)
		}
		value, ok := t.registers[cmd.Device()]
		if !ok {
			return unsupportedReply(), nil
		}
		return encodeReply(value), nil
	default:
		return atk.Reply{}, errFactory.New(atk.ErrTransferFailed)
	}
}

// Sent returns a copy of every command received so far.
func (t *Transport) Sent() []atk.Command {
	t.mu.Lock()
	defer t.mu.Unlock()

	sent := make([]atk.Command, len(t.sent))
	copy(sent, t.sent)

	return sent
}

// Count returns how many commands with the given method were received.
func (t *Transport) Count(method atk.Method) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, cmd := range t.sent {
		if cmd.Method() == method {
			n++
		}
	}

	return n
}

func encodeReply(value int32) atk.Reply {
	var r atk.Reply
	binary.LittleEndian.PutUint32(r[0:4], uint32(value+65536))

	return r
}

func unsupportedReply() atk.Reply {
	var r atk.Reply
	binary.LittleEndian.PutUint32(r[0:4], atk.RawUnsupported)

	return r
}
