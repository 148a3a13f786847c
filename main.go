package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cbhands/internal/app"
	"cbhands/internal/errors"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create and run app
	application := app.New()
	if err := application.RunWithContext(ctx, os.Args[1:]); err != nil {
		// The CLI already printed command failures; everything else
		// surfaces here.
		if !errors.IsCbhandsError(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if cbErr, ok := err.(*errors.CbhandsError); ok {
		return cbErr.ExitCode()
	}
	return 1
}
