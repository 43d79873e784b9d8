package regbus

import "context"

var _ Transport = &I2C{}

// I2C drives registers of a single peripheral on a two-wire bus.
type I2C struct {
	bus     I2CBus
	address byte
}

// NewI2C binds a peripheral address on bus.
func NewI2C(bus I2CBus, address byte) *I2C {
	return &I2C{bus: bus, address: address}
}

// Address returns the peripheral address.
func (t *I2C) Address() byte {
	return t.address
}

// ReadMany sends the register read address and reads len(buffer) bytes back
// in one combined transaction.
func (t *I2C) ReadMany(ctx context.Context, reg Register, buffer []byte) error {
	if len(buffer) == 0 {
		return ErrEmptyBuffer
	}
	clear(buffer)
	return t.bus.WriteReadAddr(ctx, t.address, []byte{reg.ReadAddress()}, buffer)
}

// Write sends [address, value] to the peripheral.
//
// The value follows the register READ address, not the write address.
// Check the device datasheet before changing it; TestI2C_WriteUsesReadAddress
// pins the current bytes.
func (t *I2C) Write(ctx context.Context, reg Register, value byte) error {
	return t.bus.WriteToAddr(ctx, t.address, []byte{reg.ReadAddress(), value})
}

// BlockOffset is zero: every byte of a two-wire read block is register data.
func (t *I2C) BlockOffset() int {
	return 0
}
