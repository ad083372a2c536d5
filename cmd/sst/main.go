// Package main is the entry point for the sst CLI client.
package main

import (
	"github.com/donaldgifford/smartsell/cmd/sst/cmd"
)

func main() {
	cmd.Execute()
}
