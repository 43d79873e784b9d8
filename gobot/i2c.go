// Package gobot backs the regbus bus contracts with gobot adaptors, so any
// board gobot supports (NanoPi, Raspberry Pi, ...) can host a register
// transport.
package gobot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/regbus"
)

var _ regbus.I2CBus = &I2CBus{}

var ErrShortTransfer = errors.New("short i2c transfer")

// smbusBlockMax is the largest block an SMBus block read transfers.
const smbusBlockMax = 32

// i2cConn is the part of a gobot i2c.Connection the bus uses.
type i2cConn interface {
	io.ReadWriteCloser
	ReadBlockData(reg uint8, b []byte) error
}

type dialFunc func(address int) (i2cConn, error)

// I2CBus opens one gobot connection per peripheral address on first use.
type I2CBus struct {
	mx    sync.Mutex
	dial  dialFunc
	conns map[byte]i2cConn
}

// NewI2CBus uses connector's bus number busNr; a negative busNr selects the
// connector default.
func NewI2CBus(connector i2c.Connector, busNr int) *I2CBus {
	if busNr < 0 {
		busNr = connector.DefaultI2cBus()
	}
	return newI2CBus(func(address int) (i2cConn, error) {
		c, err := connector.GetI2cConnection(address, busNr)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

func newI2CBus(dial dialFunc) *I2CBus {
	return &I2CBus{dial: dial, conns: make(map[byte]i2cConn)}
}

func (b *I2CBus) conn(address byte) (i2cConn, error) {
	b.mx.Lock()
	defer b.mx.Unlock()
	if c, ok := b.conns[address]; ok {
		return c, nil
	}
	c, err := b.dial(int(address))
	if err != nil {
		return nil, fmt.Errorf("could not open i2c connection to %x: %w", address, err)
	}
	b.conns[address] = c
	return c, nil
}

func (b *I2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	n, err := c.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("read from %x: %w: %d of %d", address, ErrShortTransfer, n, len(buffer))
	}
	return nil
}

func (b *I2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	c, err := b.conn(address)
	if err != nil {
		return err
	}
	n, err := c.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("write to %x: %w: %d of %d", address, ErrShortTransfer, n, len(buffer))
	}
	return nil
}

// WriteReadAddr uses a combined block read when w is a single register
// byte and r fits an SMBus block, and a write followed by a read otherwise.
func (b *I2CBus) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	if len(w) == 1 && len(r) <= smbusBlockMax {
		c, err := b.conn(address)
		if err != nil {
			return err
		}
		err = c.ReadBlockData(w[0], r)
		if err != nil {
			return fmt.Errorf("could not read block %x from i2c bus %x: %w", w[0], address, err)
		}
		return nil
	}
	err := b.WriteToAddr(ctx, address, w)
	if err != nil {
		return err
	}
	return b.ReadFromAddr(ctx, address, r)
}

// Close closes every connection opened so far.
func (b *I2CBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, c := range b.conns {
		err := c.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("close %x: %w", addr, err))
		}
		delete(b.conns, addr)
	}
	return errors.Join(errs...)
}
