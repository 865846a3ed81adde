package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"hearth/internal/cli"
	appLog "hearth/internal/log"
)

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	err := cli.Execute(ctx)
	cancel()
	if err != nil {
		appLog.Error("hearth failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Sync()
}
