package main

import (
	"os"

	"github.com/temirov/alisync/cmd/cli"
)

// main executes the alisync command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		cli.ReportError(os.Stderr, executionError)
		os.Exit(1)
	}
}
