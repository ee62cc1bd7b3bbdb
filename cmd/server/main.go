// Package main implements the entry point for the Yomu API server, which
// captures Japanese vocabulary from reading sessions and schedules it for
// spaced-repetition review.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
