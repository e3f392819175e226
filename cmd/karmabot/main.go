package main

import (
	"os"

	"github.com/bnema/karmabot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
