package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leeforge/glideformat/errors"
	"github.com/leeforge/glideformat/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", errors.NewErrorFormatter(os.Getenv("GLIDEFORMAT_DEBUG") != "").Format(err))
		stop()
		os.Exit(1)
	}
}
