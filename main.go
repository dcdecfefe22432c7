package main

import (
	"os"

	"github.com/me-e6/pengine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
