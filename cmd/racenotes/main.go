package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		// Interrupted runs already said what they needed to.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}
