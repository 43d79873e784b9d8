package regbus

import "context"

var _ Transport = &SPI{}

// SPI drives registers of a device on a clocked-serial bus. The adapter owns
// the chip select line, which is active low and held asserted for the whole
// transaction.
type SPI struct {
	bus SPIBus
	cs  OutputPin
}

func NewSPI(bus SPIBus, cs OutputPin) *SPI {
	return &SPI{bus: bus, cs: cs}
}

// ReadMany places the register read address in buffer[0] and performs a full
// duplex transfer in place. The device answer replaces buffer[1:]; buffer[0]
// holds whatever was clocked in while the address went out.
func (t *SPI) ReadMany(ctx context.Context, reg Register, buffer []byte) (err error) {
	if len(buffer) == 0 {
		return ErrEmptyBuffer
	}
	clear(buffer)
	buffer[0] = reg.ReadAddress()
	release, err := t.selectDevice()
	if err != nil {
		return err
	}
	defer release(&err)
	return t.bus.Transfer(ctx, buffer)
}

// Write sends [write address, value] within one select window.
func (t *SPI) Write(ctx context.Context, reg Register, value byte) (err error) {
	release, err := t.selectDevice()
	if err != nil {
		return err
	}
	defer release(&err)
	return t.bus.Write(ctx, []byte{reg.WriteAddress(), value})
}

// BlockOffset is one: the first byte of a block is clocked in while the
// address goes out.
func (t *SPI) BlockOffset() int {
	return 1
}

// selectDevice asserts chip select and returns the func that deasserts it.
// The line is released on every exit path. A transaction error takes
// precedence over a release error.
func (t *SPI) selectDevice() (func(*error), error) {
	err := t.cs.SetLow()
	if err != nil {
		return nil, err
	}
	return func(txErr *error) {
		relErr := t.cs.SetHigh()
		if *txErr == nil {
			*txErr = relErr
		}
	}, nil
}
