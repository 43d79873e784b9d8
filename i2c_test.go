package regbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testAddress = 0x68

func TestI2C_ReadMany(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewI2C(bus, testAddress)
	device := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	bus.On("WriteReadAddr", mock.Anything, byte(testAddress), []byte{0x81}, mock.Anything).
		Return(device, nil).Once()

	var buf [6]byte
	err := tr.ReadMany(context.Background(), Register(0x01), buf[:])

	require.NoError(t, err)
	assert.Equal(t, device, buf[:])
	bus.AssertNumberOfCalls(t, "WriteReadAddr", 1)
	bus.AssertNotCalled(t, "ReadFromAddr", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, byte(testAddress), tr.Address())
}

func TestI2C_ReadManyZeroesBuffer(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewI2C(bus, testAddress)
	bus.On("WriteReadAddr", mock.Anything, byte(testAddress), mock.Anything, []byte{0x00, 0x00, 0x00}).
		Return(nil, errBus).Once()

	buf := [3]byte{0xAA, 0xBB, 0xCC}
	err := tr.ReadMany(context.Background(), Register(0x3B), buf[:])

	assert.True(t, err == errBus, "bus error must be returned unchanged, got %v", err)
	assert.Equal(t, [3]byte{}, buf)
}

// The two-wire write path sends the register READ address followed by the
// value. This pins the current wire behaviour.
func TestI2C_WriteUsesReadAddress(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewI2C(bus, testAddress)
	reg := Register(0x01)
	bus.On("WriteToAddr", mock.Anything, byte(testAddress), []byte{reg.ReadAddress(), 0x07}).Return(nil).Once()

	err := tr.Write(context.Background(), reg, 0x07)

	require.NoError(t, err)
	bus.AssertExpectations(t)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, byte(testAddress), []byte{reg.WriteAddress(), 0x07})
}

func TestI2C_WriteError(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewI2C(bus, testAddress)
	bus.On("WriteToAddr", mock.Anything, mock.Anything, mock.Anything).Return(errBus).Once()

	err := tr.Write(context.Background(), Register(0x6B), 0x00)

	assert.True(t, err == errBus)
	assert.Equal(t, byte(testAddress), tr.Address())
}

func TestI2C_EmptyBuffer(t *testing.T) {
	bus := new(MockI2CBus)
	tr := NewI2C(bus, testAddress)

	err := tr.ReadMany(context.Background(), Register(0x01), []byte{})

	assert.ErrorIs(t, err, ErrEmptyBuffer)
	bus.AssertNotCalled(t, "WriteReadAddr", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
