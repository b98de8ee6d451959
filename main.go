package main

import (
	"os"

	"github.com/relaykit/wsrelay/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
