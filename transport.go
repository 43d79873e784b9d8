package regbus

import (
	"context"
	"fmt"
)

// Transport is the register access capability shared by all bus adapters.
//
// ReadMany fills buffer with len(buffer) bytes read starting at reg. The
// buffer is owned by the caller; declaring it as a fixed-size array at the
// call site (var buf [6]byte) keeps reads allocation free. The bytes are left
// in device order. Write stores a single byte in reg.
//
// Adapters return the bus error unchanged and keep no state between calls.
// A Transport is not safe for concurrent use.
type Transport interface {
	ReadMany(ctx context.Context, reg Register, buffer []byte) error
	Write(ctx context.Context, reg Register, value byte) error
}

// BlockOffsetter is implemented by transports whose read blocks start with
// bytes that carry no register data. The offset must not be negative.
type BlockOffsetter interface {
	BlockOffset() int
}

// BlockOffset returns the number of leading don't-care bytes in a block read
// through t.
func BlockOffset(t Transport) int {
	if o, ok := t.(BlockOffsetter); ok {
		return o.BlockOffset()
	}
	return 0
}

// ReadByte reads a single register value.
func ReadByte(ctx context.Context, t Transport, reg Register) (byte, error) {
	off := BlockOffset(t)
	if off < 0 {
		return 0, fmt.Errorf("invalid block offset %d", off)
	}
	var scratch [2]byte
	buf := scratch[:]
	if off+1 > len(scratch) {
		buf = make([]byte, off+1)
	}
	buf = buf[:off+1]
	err := t.ReadMany(ctx, reg, buf)
	return buf[off], err
}
