package host

import (
	"encoding/binary"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/edge-abi/abi"
	"github.com/wippyai/edge-abi/errors"
)

// call is one guest invocation of a host import: the session it belongs to,
// the caller's memory and the raw parameter stack.
type call struct {
	s      *Session
	mem    api.Memory
	module string
	name   string
	stack  []uint64
}

func (c *call) fn() string { return c.module + "#" + c.name }

// u32 returns parameter i.
func (c *call) u32(i int) uint32 { return api.DecodeU32(c.stack[i]) }

// in returns the guest bytes addressed by the (ptr, len) pair at parameter i.
// The slice aliases guest memory.
func (c *call) in(i int) ([]byte, error) {
	return c.view(c.u32(i), c.u32(i+1))
}

// out returns size bytes of guest memory at the pointer in parameter i.
func (c *call) out(i int, size uint32) ([]byte, error) {
	return c.view(c.u32(i), size)
}

func (c *call) view(ptr, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	if c.mem == nil {
		return nil, errors.OutOfBounds(c.fn(), ptr, length)
	}
	data, ok := c.mem.Read(ptr, length)
	if !ok {
		return nil, errors.OutOfBounds(c.fn(), ptr, length)
	}
	return data, nil
}

// fail reports an error detected before the session was reached.
func (c *call) fail(err error) abi.Status {
	return c.s.result(c.module, c.name, err)
}

func putU32(dst []byte, v uint32) { binary.LittleEndian.PutUint32(dst, v) }

func putU16(dst []byte, v uint16) { binary.LittleEndian.PutUint16(dst, v) }

func putI64(dst []byte, v int64) { binary.LittleEndian.PutUint64(dst, uint64(v)) }

// putLen encodes a written length; abi.UnknownLength travels as MaxUint32.
func putLen(dst []byte, n int) {
	if n < 0 {
		putU32(dst, math.MaxUint32)
		return
	}
	putU32(dst, uint32(n))
}

// reportsLength reports whether a length out-parameter is meaningful for
// status.
func reportsLength(status abi.Status) bool {
	return status == abi.StatusOK || status == abi.StatusBufferTooSmall
}
