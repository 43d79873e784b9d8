package regbus

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"
)

var _ Transport = &Traced{}

// Traced logs every transaction of the wrapped transport at debug level.
// Payloads are hex dumped when the context is verbose (see WithVerbose).
// Errors are passed through untouched.
type Traced struct {
	next   Transport
	logger *slog.Logger
	name   string
}

// NewTraced wraps next. A nil logger means slog.Default().
func NewTraced(next Transport, name string, logger *slog.Logger) *Traced {
	if logger == nil {
		logger = slog.Default()
	}
	return &Traced{next: next, name: name, logger: logger}
}

func (t *Traced) ReadMany(ctx context.Context, reg Register, buffer []byte) error {
	start := time.Now()
	err := t.next.ReadMany(ctx, reg, buffer)
	t.logger.DebugContext(ctx, "register read", "transport", t.name, "register", reg, "size", len(buffer), "took", time.Since(start), "error", err)
	if IsVerbose(ctx) {
		t.logger.DebugContext(ctx, "read block\n"+hex.Dump(buffer), "transport", t.name)
	}
	return err
}

func (t *Traced) Write(ctx context.Context, reg Register, value byte) error {
	start := time.Now()
	err := t.next.Write(ctx, reg, value)
	t.logger.DebugContext(ctx, "register write", "transport", t.name, "register", reg, "value", value, "took", time.Since(start), "error", err)
	return err
}

func (t *Traced) BlockOffset() int {
	return BlockOffset(t.next)
}

// Unwrap returns the wrapped transport.
func (t *Traced) Unwrap() Transport {
	return t.next
}
