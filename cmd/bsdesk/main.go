// Package main is the entry point for the bsdesk CLI.
package main

import (
	"os"

	"github.com/iltoga/businesssuite-desktop/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
