package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/clausetree/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, os.Args[1:])
	cancel()
	os.Exit(cli.ExitCode(err))
}
