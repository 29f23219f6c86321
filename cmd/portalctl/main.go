// Package main is the entry point for the portalctl CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"portal-client/internal/cli"
)

// Set at build time via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	cli.SetBuildInfo(commit, buildTime)
	code := cli.Execute(ctx, version)
	stop()
	os.Exit(code)
}
