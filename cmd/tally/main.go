// Package main provides the tally CLI.
package main

import (
	"os"

	"github.com/mesh-intelligence/tally/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
