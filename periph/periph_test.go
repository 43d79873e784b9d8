package periph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/spi"

	"github.com/mklimuk/regbus"
)

func TestI2CBus_TwoWireTransport(t *testing.T) {
	playback := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x68, W: []byte{0xF5}, R: []byte{0x71}},
			{Addr: 0x68, W: []byte{0xEB, 0x01}},
			{Addr: 0x68, W: []byte{0xBB}, R: []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}},
		},
		DontPanic: true,
	}
	tr := regbus.NewI2C(NewI2CBus(playback), 0x68)
	ctx := context.Background()

	who, err := regbus.ReadByte(ctx, tr, regbus.Register(0x75))
	require.NoError(t, err)
	assert.Equal(t, byte(0x71), who)

	require.NoError(t, tr.Write(ctx, regbus.Register(0x6B), 0x01))

	var accel [6]byte
	require.NoError(t, tr.ReadMany(ctx, regbus.Register(0x3B), accel[:]))
	assert.Equal(t, [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, accel)

	assert.NoError(t, playback.Close())
}

func TestI2CBus_WrapsErrors(t *testing.T) {
	playback := &i2ctest.Playback{DontPanic: true}
	bus := NewI2CBus(playback)

	err := bus.WriteToAddr(context.Background(), 0x68, []byte{0x00})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "could not write to i2c bus 68")
}

// fakeConn records what was clocked out and the select line level seen
// during each transfer.
type fakeConn struct {
	sent   [][]byte
	reply  []byte
	txErr  error
	cs     *gpiotest.Pin
	levels []gpio.Level
}

func (c *fakeConn) String() string { return "fake" }

func (c *fakeConn) Duplex() conn.Duplex { return conn.Full }

func (c *fakeConn) TxPackets(p []spi.Packet) error { return errors.New("not supported") }

func (c *fakeConn) Tx(w, r []byte) error {
	c.sent = append(c.sent, append([]byte(nil), w...))
	c.levels = append(c.levels, c.cs.Read())
	if c.txErr != nil {
		return c.txErr
	}
	if r != nil {
		copy(r, c.reply)
	}
	return nil
}

func TestSPIBus_ClockedSerialTransport(t *testing.T) {
	cs := &gpiotest.Pin{N: "CS", L: gpio.High}
	c := &fakeConn{cs: cs, reply: []byte{0x00, 0x10, 0x20, 0x30, 0x40, 0x50}}
	tr := regbus.NewSPI(NewSPIBus(c), NewPin(cs))
	ctx := context.Background()

	require.NoError(t, tr.Write(ctx, regbus.Register(0x01), 0x07))
	var buf [6]byte
	require.NoError(t, tr.ReadMany(ctx, regbus.Register(0x01), buf[:]))

	assert.Equal(t, [][]byte{{0x01, 0x07}, {0x81, 0x00, 0x00, 0x00, 0x00, 0x00}}, c.sent)
	assert.Equal(t, [6]byte{0x00, 0x10, 0x20, 0x30, 0x40, 0x50}, buf)
	assert.Equal(t, []gpio.Level{gpio.Low, gpio.Low}, c.levels)
	assert.Equal(t, gpio.High, cs.Read())
}

func TestSPIBus_FailureReleasesSelect(t *testing.T) {
	cs := &gpiotest.Pin{N: "CS", L: gpio.High}
	c := &fakeConn{cs: cs, txErr: errors.New("spi fault")}
	tr := regbus.NewSPI(NewSPIBus(c), NewPin(cs))

	var buf [3]byte
	err := tr.ReadMany(context.Background(), regbus.Register(0x3B), buf[:])

	assert.ErrorContains(t, err, "could not transfer on spi bus: spi fault")
	assert.Equal(t, gpio.High, cs.Read())
	assert.Equal(t, [3]byte{0xBB}, buf)
}
