package main

import (
	"os"

	"github.com/gulfmed/scout/cmd/scout/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
