package main

import (
	"os"

	"github.com/adforge/adforge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
