package main

import (
	"os"

	"github.com/kimkyngt/decay-dynamics/cmd/decayctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
