package main

import (
	"os"

	"jobharvest/cmd/jobharvest/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
