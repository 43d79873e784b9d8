package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const maxI2CAddress = 0x7F

const (
	busI2C = "i2c"
	busSPI = "spi"

	backendPeriph  = "periph"
	backendGobot   = "gobot"
	backendMCP2221 = "mcp2221"
)

type I2CConfig struct {
	Device  string `yaml:"device"`
	Address uint8  `yaml:"address"`
}

type SPIConfig struct {
	Device  string `yaml:"device"`
	Select  string `yaml:"select"`
	Mode    int    `yaml:"mode"`
	SpeedHz int64  `yaml:"speed_hz"`
}

type GobotConfig struct {
	Bus  int `yaml:"bus"`
	Chip int `yaml:"chip"`
}

// Config describes how to reach the device. It is read from a YAML file and
// then overridden by command line flags.
type Config struct {
	Bus     string      `yaml:"bus"`
	Backend string      `yaml:"backend"`
	Trace   bool        `yaml:"trace"`
	I2C     I2CConfig   `yaml:"i2c"`
	SPI     SPIConfig   `yaml:"spi"`
	Gobot   GobotConfig `yaml:"gobot"`
}

func defaultConfig() Config {
	return Config{
		Bus:     busI2C,
		Backend: backendPeriph,
		I2C:     I2CConfig{Address: 0x68},
		SPI:     SPIConfig{Mode: 0, SpeedHz: 1_000_000},
		Gobot:   GobotConfig{Bus: -1, Chip: -1},
	}
}

func loadConfig(path string) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("could not read config file: %w", err)
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return config, nil
}

func (c Config) validate() error {
	switch c.Bus {
	case busI2C:
		if c.I2C.Address > maxI2CAddress {
			return fmt.Errorf("i2c address %#x is not a 7-bit address", c.I2C.Address)
		}
	case busSPI:
		if c.Backend == backendMCP2221 {
			return fmt.Errorf("backend %s has no spi bus", c.Backend)
		}
		if c.SPI.Select == "" {
			return fmt.Errorf("spi bus requires a select pin")
		}
		if c.SPI.Mode < 0 || c.SPI.Mode > 3 {
			return fmt.Errorf("invalid spi mode %d", c.SPI.Mode)
		}
	default:
		return fmt.Errorf("unknown bus %q", c.Bus)
	}
	switch c.Backend {
	case backendPeriph, backendGobot, backendMCP2221:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

var busFlags = []cli.Flag{
	&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML bus configuration file", EnvVars: []string{"REGBUS_CONFIG"}},
	&cli.StringFlag{Name: "bus", Aliases: []string{"b"}, Usage: "bus type (i2c, spi)"},
	&cli.StringFlag{Name: "backend", Usage: "bus backend (periph, gobot, mcp2221)"},
	&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Usage: "bus device name (e.g. 1, SPI0.0)"},
	&cli.UintFlag{Name: "address", Aliases: []string{"a"}, Usage: "i2c peripheral address"},
	&cli.StringFlag{Name: "select", Usage: "spi select pin name"},
	&cli.IntFlag{Name: "mode", Usage: "spi mode (0-3)"},
	&cli.Int64Flag{Name: "speed", Usage: "spi clock in Hz"},
	&cli.BoolFlag{Name: "trace", Usage: "log every register transaction"},
}

// configFromContext loads the config file and applies the flags that were
// set explicitly.
func configFromContext(c *cli.Context) (Config, error) {
	config, err := loadConfig(c.String("config"))
	if err != nil {
		return config, err
	}
	if c.IsSet("bus") {
		config.Bus = c.String("bus")
	}
	if c.IsSet("backend") {
		config.Backend = c.String("backend")
	}
	if c.IsSet("device") {
		config.I2C.Device = c.String("device")
		config.SPI.Device = c.String("device")
	}
	if c.IsSet("address") {
		address := c.Uint("address")
		if address > maxI2CAddress {
			return config, fmt.Errorf("i2c address %#x is not a 7-bit address", address)
		}
		config.I2C.Address = uint8(address)
	}
	if c.IsSet("select") {
		config.SPI.Select = c.String("select")
	}
	if c.IsSet("mode") {
		config.SPI.Mode = c.Int("mode")
	}
	if c.IsSet("speed") {
		config.SPI.SpeedHz = c.Int64("speed")
	}
	if c.IsSet("trace") {
		config.Trace = c.Bool("trace")
	}
	return config, config.validate()
}
