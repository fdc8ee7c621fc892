package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes reported by the pipeline driver.
const (
	// ExitCodeSuccess reports a completed run.
	ExitCodeSuccess = 0
	// ExitCodeActionFailed reports a failed action or an unmet threshold gate.
	ExitCodeActionFailed = 1
	// ExitCodeUnknownTask reports a requested task that is not registered.
	ExitCodeUnknownTask = 2
	// ExitCodeDefinitionError reports invalid task definitions or dependency graphs.
	ExitCodeDefinitionError = 3
	// ExitCodeInterrupted reports a run aborted by an interrupt signal.
	ExitCodeInterrupted = 130
)

const (
	runInterruptedMessageConstant             = "pipeline run interrupted"
	taskExecutionErrorMessageTemplateConstant = "task %q action %d failed"
)

// ErrRunInterrupted indicates the run was aborted by a cancelled context.
var ErrRunInterrupted = errors.New(runInterruptedMessageConstant)

// TaskExecutionError wraps the failure of a single task action.
type TaskExecutionError struct {
	TaskName    string
	ActionIndex int
	Cause       error
}

// Error describes the failed action.
func (executionError TaskExecutionError) Error() string {
	return fmt.Sprintf(taskExecutionErrorMessageTemplateConstant, executionError.TaskName, executionError.ActionIndex)
}

// Unwrap exposes the underlying failure.
func (executionError TaskExecutionError) Unwrap() error {
	return executionError.Cause
}

// DetermineExitCode maps run errors onto the driver's exit codes.
func DetermineExitCode(runError error) int {
	if runError == nil {
		return ExitCodeSuccess
	}

	if errors.Is(runError, ErrRunInterrupted) || errors.Is(runError, context.Canceled) {
		return ExitCodeInterrupted
	}

	var unknownTaskError UnknownTaskError
	if errors.As(runError, &unknownTaskError) {
		return ExitCodeUnknownTask
	}

	var duplicateTaskError DuplicateTaskError
	var danglingPrerequisiteError DanglingPrerequisiteError
	var cyclicDependencyError CyclicDependencyError
	var unknownParserError UnknownParserError
	if errors.As(runError, &duplicateTaskError) ||
		errors.As(runError, &danglingPrerequisiteError) ||
		errors.As(runError, &cyclicDependencyError) ||
		errors.As(runError, &unknownParserError) ||
		errors.Is(runError, ErrInvalidTaskDefinition) ||
		errors.Is(runError, ErrPipelineFileInvalid) {
		return ExitCodeDefinitionError
	}

	return ExitCodeActionFailed
}
