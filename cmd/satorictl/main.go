// Package main is the entry point for the satori operator CLI.
package main

import (
	"os"

	"github.com/satori-nvr/satori/cmd/satorictl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
