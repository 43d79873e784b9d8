package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mklimuk/regbus"
	"github.com/mklimuk/regbus/adapter"
)

var _ regbus.Transport = &releasingTransport{}

// releasingTransport frees a bridge left holding the bus after a busy
// transaction. The transaction error is returned unchanged.
type releasingTransport struct {
	regbus.Transport
	releaser regbus.Releaser
}

func withRelease(t regbus.Transport, releaser regbus.Releaser) *releasingTransport {
	return &releasingTransport{Transport: t, releaser: releaser}
}

func (r *releasingTransport) ReadMany(ctx context.Context, reg regbus.Register, buffer []byte) error {
	err := r.Transport.ReadMany(ctx, reg, buffer)
	r.releaseIfBusy(ctx, err)
	return err
}

func (r *releasingTransport) Write(ctx context.Context, reg regbus.Register, value byte) error {
	err := r.Transport.Write(ctx, reg, value)
	r.releaseIfBusy(ctx, err)
	return err
}

func (r *releasingTransport) BlockOffset() int {
	return regbus.BlockOffset(r.Transport)
}

func (r *releasingTransport) releaseIfBusy(ctx context.Context, err error) {
	if !errors.Is(err, adapter.ErrBusBusy) {
		return
	}
	relErr := r.releaser.Release(ctx)
	if relErr != nil {
		slog.WarnContext(ctx, "could not release busy bus", "error", relErr)
		return
	}
	slog.DebugContext(ctx, "bus released after busy transaction")
}
