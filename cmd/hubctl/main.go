package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	fcolor "github.com/fatih/color"

	"dataset-hub-service/internal/adapters/primary/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd()
	root.SilenceErrors = true
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fcolor.New(fcolor.FgRed).Fprintln(os.Stderr, "✗", err)
		stop()
		os.Exit(1)
	}
}
