package main

import (
	"os"

	"github.com/marovik/fleetopt/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
