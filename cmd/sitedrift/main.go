package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sitedrift/internal/pipeline"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, pipeline.ErrDriftRemaining) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
