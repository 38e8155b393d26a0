package main

import (
	"fmt"
	"os"

	"github.com/nzb155/nomulus/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "initsql:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
