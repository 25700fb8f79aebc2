// Package main provides the entry point for the drift folder audit CLI.
package main

import (
	"errors"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		if errors.Is(err, errDriftDetected) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
