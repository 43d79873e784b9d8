package gobot

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2/drivers/spi"

	"github.com/mklimuk/regbus"
)

var _ regbus.SPIBus = &SPIBus{}
var _ regbus.OutputPin = &Pin{}

// spiConn is the part of a gobot spi.Connection the bus uses.
type spiConn interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
	Close() error
}

type SPIConfig struct {
	Bus      int
	Chip     int
	Mode     int
	Bits     int
	MaxSpeed int64
}

type SPIConfigOption func(*SPIConfig)

func WithBus(bus int) SPIConfigOption {
	return func(c *SPIConfig) {
		c.Bus = bus
	}
}

func WithChip(chip int) SPIConfigOption {
	return func(c *SPIConfig) {
		c.Chip = chip
	}
}

func WithMode(mode int) SPIConfigOption {
	return func(c *SPIConfig) {
		c.Mode = mode
	}
}

func WithMaxSpeed(hz int64) SPIConfigOption {
	return func(c *SPIConfig) {
		c.MaxSpeed = hz
	}
}

type SPIBus struct {
	conn spiConn
}

// OpenSPI connects to a SPI device through connector. Unset options take the
// connector defaults.
func OpenSPI(connector spi.Connector, opts ...SPIConfigOption) (*SPIBus, error) {
	config := &SPIConfig{
		Bus:      connector.SpiDefaultBusNumber(),
		Chip:     connector.SpiDefaultChipNumber(),
		Mode:     connector.SpiDefaultMode(),
		Bits:     connector.SpiDefaultBitCount(),
		MaxSpeed: connector.SpiDefaultMaxSpeed(),
	}
	for _, opt := range opts {
		opt(config)
	}
	conn, err := connector.GetSpiConnection(config.Bus, config.Chip, config.Mode, config.Bits, config.MaxSpeed)
	if err != nil {
		return nil, fmt.Errorf("could not open spi connection %d.%d: %w", config.Bus, config.Chip, err)
	}
	return &SPIBus{conn: conn}, nil
}

func (b *SPIBus) Write(ctx context.Context, buffer []byte) error {
	err := b.conn.WriteBytes(buffer)
	if err != nil {
		return fmt.Errorf("could not write to spi bus: %w", err)
	}
	return nil
}

// Transfer clocks buffer out and the answer in. gobot only exposes
// command/data transfers, so the first byte is sent as the command and the
// bytes clocked in behind it land in buffer[1:]; buffer[0] keeps what was
// sent.
func (b *SPIBus) Transfer(ctx context.Context, buffer []byte) error {
	if len(buffer) == 0 {
		return nil
	}
	err := b.conn.ReadCommandData(buffer[:1], buffer[1:])
	if err != nil {
		return fmt.Errorf("could not transfer on spi bus: %w", err)
	}
	return nil
}

func (b *SPIBus) Close() error {
	return b.conn.Close()
}

// DigitalWriter is satisfied by gobot adaptors with GPIO support.
type DigitalWriter interface {
	DigitalWrite(pin string, val byte) error
}

// Pin drives an adaptor GPIO as a digital output.
type Pin struct {
	writer DigitalWriter
	name   string
}

func NewPin(writer DigitalWriter, name string) *Pin {
	return &Pin{writer: writer, name: name}
}

func (p *Pin) SetHigh() error {
	err := p.writer.DigitalWrite(p.name, 1)
	if err != nil {
		return fmt.Errorf("could not set pin %s high: %w", p.name, err)
	}
	return nil
}

func (p *Pin) SetLow() error {
	err := p.writer.DigitalWrite(p.name, 0)
	if err != nil {
		return fmt.Errorf("could not set pin %s low: %w", p.name, err)
	}
	return nil
}
