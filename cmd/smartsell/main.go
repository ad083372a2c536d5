// Package main is the entry point for the smartsell server.
package main

import (
	"os"

	"github.com/donaldgifford/smartsell/cmd/smartsell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
