package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/queuesend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := app.New(os.Stdout).Run(ctx, os.Args) // blocks until the message is sent or fails
	stop()

	os.Exit(code)
}
