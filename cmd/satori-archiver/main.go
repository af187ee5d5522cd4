// Package main is the entry point for the satori archiver.
package main

import (
	"os"

	"github.com/satori-nvr/satori/cmd/satori-archiver/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
