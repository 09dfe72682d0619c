package main

import (
	"fmt"
	"os"

	"github.com/roach88/specrun/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "specrun: %s\n", msg)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
