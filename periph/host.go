// Package periph backs the regbus bus contracts with periph.io drivers.
package periph

import (
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/host/v3"
)

var initOnce sync.Once
var initErr error

// Init loads the periph host drivers. It is safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			initErr = fmt.Errorf("could not init host: %w", err)
			return
		}
		for _, driver := range state.Loaded {
			slog.Debug("periph driver loaded", "driver", driver.String())
		}
		for _, failure := range state.Failed {
			slog.Debug("periph driver failed", "driver", failure.D.String(), "error", failure.Err)
		}
	})
	return initErr
}
