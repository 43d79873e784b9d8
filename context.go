package regbus

import "context"

type verboseKey struct{}

// WithVerbose marks ctx so that tracing code dumps transaction payloads.
func WithVerbose(ctx context.Context, verbose bool) context.Context {
	return context.WithValue(ctx, verboseKey{}, verbose)
}

func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(verboseKey{}).(bool)
	return verbose
}
