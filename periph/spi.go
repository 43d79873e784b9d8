package periph

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/mklimuk/regbus"
)

var _ regbus.SPIBus = &SPIBus{}

const defaultSPISpeed = physic.MegaHertz

type SPIConfig struct {
	Speed physic.Frequency
	Mode  spi.Mode
	Bits  int
}

type SPIConfigOption func(*SPIConfig)

func WithSpeed(speed physic.Frequency) SPIConfigOption {
	return func(c *SPIConfig) {
		c.Speed = speed
	}
}

func WithMode(mode spi.Mode) SPIConfigOption {
	return func(c *SPIConfig) {
		c.Mode = mode
	}
}

// WithoutHardwareSelect tells the port to leave its own chip select alone;
// use it when the select line is driven as a GPIO.
func WithoutHardwareSelect() SPIConfigOption {
	return func(c *SPIConfig) {
		c.Mode |= spi.NoCS
	}
}

type SPIBus struct {
	conn spi.Conn
	port spi.PortCloser
}

// NewSPIBus wraps an already connected periph SPI connection.
func NewSPIBus(conn spi.Conn) *SPIBus {
	return &SPIBus{conn: conn}
}

// OpenSPI opens the named port and connects to it. Defaults are mode 0,
// 8 bit words at 1 MHz.
func OpenSPI(dev string, opts ...SPIConfigOption) (*SPIBus, error) {
	config := &SPIConfig{
		Speed: defaultSPISpeed,
		Mode:  spi.Mode0,
		Bits:  8,
	}
	for _, opt := range opts {
		opt(config)
	}
	err := Init()
	if err != nil {
		return nil, err
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port: %w", err)
	}
	conn, err := port.Connect(config.Speed, config.Mode, config.Bits)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not connect to spi port %s: %w", dev, err)
	}
	return &SPIBus{conn: conn, port: port}, nil
}

func (b *SPIBus) Write(ctx context.Context, buffer []byte) error {
	err := b.conn.Tx(buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to spi bus: %w", err)
	}
	return nil
}

func (b *SPIBus) Transfer(ctx context.Context, buffer []byte) error {
	err := b.conn.Tx(buffer, buffer)
	if err != nil {
		return fmt.Errorf("could not transfer on spi bus: %w", err)
	}
	return nil
}

func (b *SPIBus) String() string {
	return b.conn.String()
}

func (b *SPIBus) Close() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}
