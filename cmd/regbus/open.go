package main

import (
	"errors"
	"fmt"
	"log/slog"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/mklimuk/regbus"
	"github.com/mklimuk/regbus/adapter"
	"github.com/mklimuk/regbus/gobot"
	"github.com/mklimuk/regbus/periph"
)

type closerFunc func() error

// openTransport builds the register transport described by config. The
// returned closer releases every resource opened on the way.
func openTransport(config Config) (regbus.Transport, closerFunc, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	var t regbus.Transport
	switch config.Backend {
	case backendPeriph:
		switch config.Bus {
		case busI2C:
			bus, err := periph.OpenI2C(config.I2C.Device)
			if err != nil {
				return nil, nil, err
			}
			closers = append(closers, bus.Close)
			t = regbus.NewI2C(bus, config.I2C.Address)
		case busSPI:
			bus, err := periph.OpenSPI(config.SPI.Device,
				periph.WithMode(spi.Mode(config.SPI.Mode)),
				periph.WithSpeed(physic.Frequency(config.SPI.SpeedHz)*physic.Hertz),
				periph.WithoutHardwareSelect(),
			)
			if err != nil {
				return nil, nil, err
			}
			closers = append(closers, bus.Close)
			pin, err := periph.OpenSelectPin(config.SPI.Select)
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			t = regbus.NewSPI(bus, pin)
		}
	case backendGobot:
		board := nanopi.NewNeoAdaptor()
		err := board.Connect()
		if err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		closers = append(closers, board.Finalize)
		switch config.Bus {
		case busI2C:
			bus := gobot.NewI2CBus(board, config.Gobot.Bus)
			closers = append(closers, bus.Close)
			t = regbus.NewI2C(bus, config.I2C.Address)
		case busSPI:
			opts := []gobot.SPIConfigOption{
				gobot.WithMode(config.SPI.Mode),
				gobot.WithMaxSpeed(config.SPI.SpeedHz),
			}
			if config.Gobot.Bus >= 0 {
				opts = append(opts, gobot.WithBus(config.Gobot.Bus))
			}
			if config.Gobot.Chip >= 0 {
				opts = append(opts, gobot.WithChip(config.Gobot.Chip))
			}
			bus, err := gobot.OpenSPI(board, opts...)
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			closers = append(closers, bus.Close)
			pin := gobot.NewPin(board, config.SPI.Select)
			err = pin.SetHigh()
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			t = regbus.NewSPI(bus, pin)
		}
	case backendMCP2221:
		bridge := adapter.NewMCP2221()
		t = withRelease(regbus.NewI2C(bridge, config.I2C.Address), bridge)
	}
	if t == nil {
		_ = closeAll()
		return nil, nil, fmt.Errorf("unsupported bus %s on backend %s", config.Bus, config.Backend)
	}
	if config.Trace {
		t = regbus.NewTraced(t, fmt.Sprintf("%s/%s", config.Backend, config.Bus), slog.Default())
	}
	return t, closeAll, nil
}
