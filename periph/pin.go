package periph

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/mklimuk/regbus"
)

var _ regbus.OutputPin = &Pin{}

// Pin drives a periph GPIO as a digital output.
type Pin struct {
	pin gpio.PinOut
}

func NewPin(pin gpio.PinOut) *Pin {
	return &Pin{pin: pin}
}

// OpenSelectPin looks the pin up by name and drives it high, leaving an
// active-low select line deasserted.
func OpenSelectPin(name string) (*Pin, error) {
	err := Init()
	if err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio pin %s not found", name)
	}
	err = p.Out(gpio.High)
	if err != nil {
		return nil, fmt.Errorf("could not deassert select pin %s: %w", name, err)
	}
	return &Pin{pin: p}, nil
}

func (p *Pin) SetHigh() error {
	return p.pin.Out(gpio.High)
}

func (p *Pin) SetLow() error {
	return p.pin.Out(gpio.Low)
}

func (p *Pin) String() string {
	return p.pin.String()
}
