package main

import (
	"fmt"
	"os"

	"github.com/tyemirov/relpipe/cmd/cli"
	"github.com/tyemirov/relpipe/internal/pipeline"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the relpipe command-line application and maps the outcome to
// the documented process exit codes.
func main() {
	executionError := cli.Execute()
	if executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(pipeline.DetermineExitCode(executionError))
	}
}
