package regbus

import (
	"context"
	"errors"
)

// ErrEmptyBuffer is returned by ReadMany when the caller passes a zero-length block.
var ErrEmptyBuffer = errors.New("register block buffer is empty")

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

// BusTransferer performs a full-duplex transfer in place: the bytes clocked
// in replace the bytes clocked out.
type BusTransferer interface {
	Transfer(ctx context.Context, buffer []byte) error
}

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableTransactor writes w and then reads into r within one bus
// transaction (repeated start where the hardware supports it).
type AddressableTransactor interface {
	WriteReadAddr(ctx context.Context, address byte, w, r []byte) error
}

// Releaser is implemented by bridges that can be left holding the bus after
// a failed transaction.
type Releaser interface {
	Release(ctx context.Context) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
	AddressableTransactor
}

type SPIBus interface {
	BusWriter
	BusTransferer
}

// OutputPin is a digital output, used as the SPI chip select.
type OutputPin interface {
	SetHigh() error
	SetLow() error
}
