package main

import (
	"os"

	"qrmenu/qrmenu-cli/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
