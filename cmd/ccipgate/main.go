package main

import (
	"os"

	"github.com/nite-coder/ccipgate"
)

var version = "dev"

func main() {
	if err := ccipgate.Run(ccipgate.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}
