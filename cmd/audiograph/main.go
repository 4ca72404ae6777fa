package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pipelined.dev/audiograph/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stdout, os.Stderr)
	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
