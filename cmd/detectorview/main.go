package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roman-kulish/detector-view/cmd/detectorview/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
