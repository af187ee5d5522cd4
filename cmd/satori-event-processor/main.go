// Package main is the entry point for the satori event processor.
package main

import (
	"os"

	"github.com/satori-nvr/satori/cmd/satori-event-processor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
