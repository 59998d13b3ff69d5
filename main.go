package main

import (
	"os"

	"github.com/spigell/cv-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
