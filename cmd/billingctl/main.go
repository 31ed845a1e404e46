package main

import (
	"fmt"
	"io"
	"os"

	"github.com/shehrozeikram/ERP-sub003/internal/config"
)

func main() {
	loadEnv(os.Stderr, ".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadEnv loads .env files for local use and warns when one cannot be read.
func loadEnv(stderr io.Writer, paths ...string) {
	if err := config.LoadDotEnv(paths...); err != nil {
		fmt.Fprintf(stderr, "warning: could not load .env: %v\n", err)
	}
}
