package main

import (
	"os"

	"github.com/rose-bag/rose/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
