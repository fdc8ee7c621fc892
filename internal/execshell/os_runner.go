package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const (
	environmentEntryTemplateConstant = "%s=%s"
	commandStartErrorTemplate        = "unable to start %s: %w"
	commandInterruptedErrorTemplate  = "%s interrupted: %w"
)

// OSCommandRunner executes shell commands as operating system processes.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an OSCommandRunner instance.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command as a child process and waits for it to finish.
// The child receives the parent environment extended by the command's
// environment variables; the context kills the child when cancelled.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(command.Name) == 0 {
		return ExecutionResult{}, ErrCommandNameMissing
	}

	osCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	osCommand.Dir = command.Details.WorkingDirectory
	osCommand.Env = mergeEnvironment(command.Details.EnvironmentVariables)

	if len(command.Details.StandardInput) > 0 {
		osCommand.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	osCommand.Stdout = &standardOutputBuffer
	osCommand.Stderr = &standardErrorBuffer

	runError := osCommand.Run()

	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}

	if runError == nil {
		return executionResult, nil
	}

	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, fmt.Errorf(commandInterruptedErrorTemplate, command.Name, contextError)
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		executionResult.ExitCode = exitError.ExitCode()
		return executionResult, nil
	}

	return ExecutionResult{}, fmt.Errorf(commandStartErrorTemplate, command.Name, runError)
}

func mergeEnvironment(environmentVariables map[string]string) []string {
	environment := os.Environ()
	for variableName, variableValue := range environmentVariables {
		environment = append(environment, fmt.Sprintf(environmentEntryTemplateConstant, variableName, variableValue))
	}
	return environment
}
