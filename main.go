package main

import (
	"context"
	"os/signal"
	"syscall"

	"econdata-collector/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd.ExecuteContext(ctx)
}
