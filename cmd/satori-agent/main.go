// Package main is the entry point for the satori camera agent.
package main

import (
	"os"

	"github.com/satori-nvr/satori/cmd/satori-agent/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
