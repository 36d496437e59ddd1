// Package main is the entry point for the cargotest CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/cargotest/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
