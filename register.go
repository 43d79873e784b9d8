package regbus

import "fmt"

const directionBit = 0x80

// Register identifies a device register. Bit 7 of the address byte carries
// the transfer direction: set for reads, cleared for writes.
type Register byte

// ReadAddress returns the address byte sent to read the register.
func (r Register) ReadAddress() byte {
	return byte(r) | directionBit
}

// WriteAddress returns the address byte sent to write the register.
func (r Register) WriteAddress() byte {
	return byte(r) &^ directionBit
}

func (r Register) String() string {
	return fmt.Sprintf("0x%02x", byte(r))
}
