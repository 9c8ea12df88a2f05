package main

import (
	"os"

	"github.com/temidaradev/coinwatch/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
