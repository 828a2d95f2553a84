package main

import (
	"os"

	"github.com/katalvlaran/symad/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
