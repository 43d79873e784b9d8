package regbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		transport func() Transport
	}{
		{
			name: "i2c",
			transport: func() Transport {
				return NewI2C(&echoI2CBus{address: testAddress}, testAddress)
			},
		},
		{
			name: "spi",
			transport: func() Transport {
				return NewSPI(&echoSPIBus{}, newFakePin(nil))
			},
		},
		{
			name: "traced spi",
			transport: func() Transport {
				return NewTraced(NewSPI(&echoSPIBus{}, newFakePin(nil)), "spi", nil)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tr := tt.transport()

			require.NoError(t, tr.Write(ctx, Register(0x1A), 0x07))
			v, err := ReadByte(ctx, tr, Register(0x1A))
			require.NoError(t, err)
			assert.Equal(t, byte(0x07), v)

			require.NoError(t, tr.Write(ctx, Register(0x1B), 0x08))
			require.NoError(t, tr.Write(ctx, Register(0x1C), 0x09))
			var buf [4]byte
			off := BlockOffset(tr)
			require.NoError(t, tr.ReadMany(ctx, Register(0x1A), buf[:off+3]))
			assert.Equal(t, []byte{0x07, 0x08, 0x09}, buf[off:off+3])
		})
	}
}
