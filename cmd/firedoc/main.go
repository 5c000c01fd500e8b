package main

import (
	"fmt"
	"os"

	"github.com/roach88/firedoc/internal/cli"
)

// Version is set at build time
var Version = "dev"

func main() {
	root := cli.NewRootCommand()
	root.Version = Version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
