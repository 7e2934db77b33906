package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/solstice-fi/gaugex/app/syncer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	defer cancel()

	app := syncer.Initialize(ctx)

	app.Start(ctx)
}
