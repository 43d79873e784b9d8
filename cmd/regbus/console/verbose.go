package console

import (
	"context"

	"github.com/mklimuk/regbus"
)

func SetVerbose(parent context.Context, value bool) context.Context {
	return regbus.WithVerbose(parent, value)
}
