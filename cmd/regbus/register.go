package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/regbus"
	"github.com/mklimuk/regbus/cmd/regbus/console"
)

const maxBlock = 64

const regWhoAmI = regbus.Register(0x75)

func parseRegister(s string) (regbus.Register, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("could not parse register %q: %w", s, err)
	}
	if v > 0x7F {
		return 0, fmt.Errorf("register %#x out of range (0x00-0x7f)", v)
	}
	return regbus.Register(v), nil
}

func parseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("could not parse value %q: %w", s, err)
	}
	return byte(v), nil
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("could not parse count %q: %w", s, err)
	}
	if n < 1 || n > maxBlock {
		return 0, fmt.Errorf("count out of range: %d (1-%d)", n, maxBlock)
	}
	return n, nil
}

// readRegisters reads n register bytes starting at reg and strips the
// transport's leading don't-care bytes.
func readRegisters(ctx context.Context, t regbus.Transport, reg regbus.Register, n int) ([]byte, error) {
	off := regbus.BlockOffset(t)
	buf := make([]byte, off+n)
	err := t.ReadMany(ctx, reg, buf)
	if err != nil {
		return nil, err
	}
	return buf[off:], nil
}

func printBlock(out io.Writer, reg regbus.Register, data []byte) {
	if len(data) == 1 {
		_, _ = fmt.Fprintf(out, "%s %s = %s\n", console.PictoRegister, console.Cyan(reg), console.Hex(data[0]))
		return
	}
	_, _ = fmt.Fprintf(out, "%s %s (%d bytes)\n%s", console.PictoRegister, console.Cyan(reg), len(data), hex.Dump(data))
}

// withTransport opens the configured transport for the duration of fn.
func withTransport(c *cli.Context, fn func(ctx context.Context, t regbus.Transport) error) error {
	config, err := configFromContext(c)
	if err != nil {
		return console.Fail("invalid configuration", err)
	}
	t, closer, err := openTransport(config)
	if err != nil {
		return console.Fail("could not open transport", err)
	}
	defer func() {
		err := closer()
		if err != nil {
			console.Warnf("could not close transport: %s", err)
		}
	}()
	ctx := console.SetVerbose(c.Context, c.Bool("verbose"))
	return fn(ctx, t)
}

var readCmd = cli.Command{
	Name:      "read",
	Aliases:   []string{"r"},
	Usage:     "read one or more consecutive registers",
	ArgsUsage: "<register> [count]",
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 || c.NArg() > 2 {
			return console.Exit(1, "expected 1 or 2 arguments, got %d", c.NArg())
		}
		reg, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Fail("invalid register", err)
		}
		n := 1
		if c.NArg() == 2 {
			n, err = parseCount(c.Args().Get(1))
			if err != nil {
				return console.Fail("invalid count", err)
			}
		}
		return withTransport(c, func(ctx context.Context, t regbus.Transport) error {
			data, err := readRegisters(ctx, t, reg, n)
			if err != nil {
				return console.Fail("register read failed", err)
			}
			printBlock(console.Writer(), reg, data)
			return nil
		})
	},
}

var writeCmd = cli.Command{
	Name:      "write",
	Aliases:   []string{"w"},
	Usage:     "write a register",
	ArgsUsage: "<register> <value>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		reg, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Fail("invalid register", err)
		}
		value, err := parseByte(c.Args().Get(1))
		if err != nil {
			return console.Fail("invalid value", err)
		}
		if !c.Bool("yes") {
			answer, err := console.NoOrYes(fmt.Sprintf("write 0x%02x to register %s?", value, reg))
			if err != nil {
				return console.Fail("prompt failed", err)
			}
			if answer != console.Yes {
				console.PInfof(console.PictoStop, "write cancelled")
				return nil
			}
		}
		return withTransport(c, func(ctx context.Context, t regbus.Transport) error {
			err := t.Write(ctx, reg, value)
			if err != nil {
				return console.Fail("register write failed", err)
			}
			console.PInfof(console.PictoWrite, "%s <- %s", console.Cyan(reg), console.Hex(value))
			return nil
		})
	},
}

var dumpCmd = cli.Command{
	Name:      "dump",
	Usage:     "read a register range one register at a time",
	ArgsUsage: "<from> <to>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		from, err := parseRegister(c.Args().Get(0))
		if err != nil {
			return console.Fail("invalid register", err)
		}
		to, err := parseRegister(c.Args().Get(1))
		if err != nil {
			return console.Fail("invalid register", err)
		}
		if to < from {
			return console.Exit(1, "empty register range %s-%s", from, to)
		}
		return withTransport(c, func(ctx context.Context, t regbus.Transport) error {
			return dumpRegisters(ctx, t, from, to, console.Writer())
		})
	},
}

func dumpRegisters(ctx context.Context, t regbus.Transport, from, to regbus.Register, out io.Writer) error {
	w := tabwriter.NewWriter(out, 8, 0, 1, ' ', 0)
	_, _ = fmt.Fprintf(w, "REGISTER\tVALUE\tBINARY\n")
	for reg := int(from); reg <= int(to); reg++ {
		v, err := regbus.ReadByte(ctx, t, regbus.Register(reg))
		if err != nil {
			_ = w.Flush()
			return fmt.Errorf("could not read register %s: %w", regbus.Register(reg), err)
		}
		_, _ = fmt.Fprintf(w, "%s\t0x%02x\t%08b\n", regbus.Register(reg), v, v)
	}
	return w.Flush()
}

var whoAmICmd = cli.Command{
	Name:  "whoami",
	Usage: "read the device identity register (0x75)",
	Action: func(c *cli.Context) error {
		return withTransport(c, func(ctx context.Context, t regbus.Transport) error {
			v, err := regbus.ReadByte(ctx, t, regWhoAmI)
			if err != nil {
				return console.Fail("identity read failed", err)
			}
			console.Printf("WHO_AM_I: %s\n", console.Hex(v))
			return nil
		})
	},
}
