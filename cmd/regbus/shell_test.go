package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/regbus"
)

// memoryBus is a two-wire device whose registers echo what was written.
type memoryBus struct {
	regs [128]byte
	err  error
}

func (b *memoryBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return errors.New("not used")
}

func (b *memoryBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if b.err != nil {
		return b.err
	}
	b.regs[buffer[0]&0x7F] = buffer[1]
	return nil
}

func (b *memoryBus) WriteReadAddr(ctx context.Context, address byte, w, r []byte) error {
	if b.err != nil {
		return b.err
	}
	copy(r, b.regs[w[0]&0x7F:])
	return nil
}

func TestRunLine(t *testing.T) {
	bus := &memoryBus{}
	bus.regs[0x75] = 0x71
	tr := regbus.NewI2C(bus, 0x68)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, runLine(ctx, tr, "w 0x6b 0x01", &out))
	assert.Equal(t, byte(0x01), bus.regs[0x6B])

	require.NoError(t, runLine(ctx, tr, "r 0x6b", &out))
	assert.Contains(t, out.String(), "0x6b")

	out.Reset()
	require.NoError(t, runLine(ctx, tr, "r 0x6b 3", &out))
	assert.Contains(t, out.String(), "3 bytes")

	out.Reset()
	require.NoError(t, runLine(ctx, tr, "d 0x74 0x75", &out))
	assert.Contains(t, out.String(), "0x75")
	assert.Contains(t, out.String(), "0x71")
	assert.Contains(t, out.String(), "01110001")

	assert.NoError(t, runLine(ctx, tr, "   ", &out))
	assert.ErrorIs(t, runLine(ctx, tr, "q", &out), errQuit)
	assert.Error(t, runLine(ctx, tr, "x", &out))
	assert.Error(t, runLine(ctx, tr, "r 0x80", &out))
	assert.Error(t, runLine(ctx, tr, "r 0x10 0", &out))
	assert.Error(t, runLine(ctx, tr, "w 0x10", &out))
}

func TestRunLine_BusError(t *testing.T) {
	errBus := errors.New("nack")
	tr := regbus.NewI2C(&memoryBus{err: errBus}, 0x68)

	err := runLine(context.Background(), tr, "r 0x75", &bytes.Buffer{})

	assert.ErrorIs(t, err, errBus)
}

func TestReadRegisters_StripsBlockOffset(t *testing.T) {
	tr := regbus.NewSPI(&spiMemory{}, nopPin{})

	data, err := readRegisters(context.Background(), tr, regbus.Register(0x10), 2)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x11}, data)
}

// spiMemory answers every read with the register numbers themselves.
type spiMemory struct{}

func (spiMemory) Write(ctx context.Context, buffer []byte) error { return nil }

func (spiMemory) Transfer(ctx context.Context, buffer []byte) error {
	start := buffer[0] &^ 0x80
	buffer[0] = 0
	for i := 1; i < len(buffer); i++ {
		buffer[i] = start + byte(i-1)
	}
	return nil
}

type nopPin struct{}

func (nopPin) SetHigh() error { return nil }
func (nopPin) SetLow() error  { return nil }

func TestParseRegister(t *testing.T) {
	reg, err := parseRegister("0x3b")
	require.NoError(t, err)
	assert.Equal(t, regbus.Register(0x3B), reg)

	reg, err = parseRegister("117")
	require.NoError(t, err)
	assert.Equal(t, regWhoAmI, reg)

	_, err = parseRegister("0x1ff")
	assert.Error(t, err)
	_, err = parseRegister("zz")
	assert.Error(t, err)
}
