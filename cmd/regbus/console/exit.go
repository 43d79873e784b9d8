package console

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// Fail reports err in red and exits with code 1.
func Fail(msg string, err error) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf("%s: %s", msg, Red(err)), 1)
}
