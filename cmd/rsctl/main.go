// Package main is the entry point for the rsctl CLI client.
package main

import (
	"github.com/donaldgifford/rulesync/cmd/rsctl/cmd"
)

func main() {
	cmd.Execute()
}
