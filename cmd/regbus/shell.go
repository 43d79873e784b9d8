package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/regbus"
	"github.com/mklimuk/regbus/cmd/regbus/console"
)

var errQuit = errors.New("quit")

const shellHelp = `commands:
  r <register> [count]   read registers
  w <register> <value>   write a register
  d <from> <to>          dump a register range
  q                      quit
`

var shellCmd = cli.Command{
	Name:  "shell",
	Usage: "interactive register console",
	Action: func(c *cli.Context) error {
		return withTransport(c, func(ctx context.Context, t regbus.Transport) error {
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "regbus> ",
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       "q",
			})
			if err != nil {
				return console.Fail("could not start shell", err)
			}
			defer func() { _ = rl.Close() }()
			_, _ = fmt.Fprint(rl.Stdout(), shellHelp)
			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if err != nil {
					return nil
				}
				err = runLine(ctx, t, line, rl.Stdout())
				if errors.Is(err, errQuit) {
					return nil
				}
				if err != nil {
					console.Errorf("%s", err)
				}
			}
		})
	},
}

// runLine executes one shell command against t.
func runLine(ctx context.Context, t regbus.Transport, line string, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	args := fields[1:]
	switch fields[0] {
	case "q", "quit", "exit":
		return errQuit
	case "h", "help", "?":
		_, _ = fmt.Fprint(out, shellHelp)
		return nil
	case "r", "read":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: r <register> [count]")
		}
		reg, err := parseRegister(args[0])
		if err != nil {
			return err
		}
		n := 1
		if len(args) == 2 {
			n, err = parseCount(args[1])
			if err != nil {
				return err
			}
		}
		data, err := readRegisters(ctx, t, reg, n)
		if err != nil {
			return fmt.Errorf("read %s: %w", reg, err)
		}
		printBlock(out, reg, data)
		return nil
	case "w", "write":
		if len(args) != 2 {
			return fmt.Errorf("usage: w <register> <value>")
		}
		reg, err := parseRegister(args[0])
		if err != nil {
			return err
		}
		value, err := parseByte(args[1])
		if err != nil {
			return err
		}
		err = t.Write(ctx, reg, value)
		if err != nil {
			return fmt.Errorf("write %s: %w", reg, err)
		}
		return nil
	case "d", "dump":
		if len(args) != 2 {
			return fmt.Errorf("usage: d <from> <to>")
		}
		from, err := parseRegister(args[0])
		if err != nil {
			return err
		}
		to, err := parseRegister(args[1])
		if err != nil {
			return err
		}
		return dumpRegisters(ctx, t, from, to, out)
	default:
		return fmt.Errorf("unknown command %q (h for help)", fields[0])
	}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".regbus_history")
}
