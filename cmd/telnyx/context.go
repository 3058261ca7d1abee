package main

import (
	"context"
	"errors"
)

// appKey is the context key for the per-invocation dependencies.
type appKey struct{}

// withApp returns a new context with a stored.
func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// appFromContext retrieves the dependencies installed by the root command.
func appFromContext(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey{}).(*app)
	if !ok || a == nil {
		return nil, errors.New("app not found in context")
	}
	return a, nil
}
