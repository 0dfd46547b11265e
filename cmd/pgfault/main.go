// Package main is the entry point of pgfault, which reproduces a query that
// fails partway through on a single-connection PostgreSQL pool and checks
// that the connection is still usable afterwards.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
