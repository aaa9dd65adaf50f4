// Package main is the entry point for the rulesync service.
package main

import (
	"os"

	"github.com/donaldgifford/rulesync/cmd/rulesync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
