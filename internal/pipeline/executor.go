package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tyemirov/relpipe/internal/execshell"
)

const (
	executorLoggerMissingMessageConstant        = "pipeline executor logger not configured"
	executorShellExecutorMissingMessageConstant = "pipeline executor shell executor not configured"
	stepStartedMessageConstant                  = "task starting"
	stepCompletedMessageConstant                = "task completed"
	stepFailedMessageConstant                   = "task failed"
	gateSatisfiedMessageConstant                = "threshold gate satisfied"
	taskNameFieldConstant                       = "task"
	actionIndexFieldConstant                    = "action_index"
	actionCommandFieldConstant                  = "action_command"
	stepDurationFieldConstant                   = "duration"
	gateSubjectFieldConstant                    = "subject"
	gateValueFieldConstant                      = "value"
	gateMinimumFieldConstant                    = "minimum"
	outputRelayLineTemplateConstant             = "[%s] %s\n"
	dryRunLineTemplateConstant                  = "DRY-RUN %s: %s\n"
)

var (
	// ErrExecutorLoggerNotConfigured indicates the executor logger dependency was missing.
	ErrExecutorLoggerNotConfigured = errors.New(executorLoggerMissingMessageConstant)
	// ErrShellExecutorNotConfigured indicates the shell executor dependency was missing.
	ErrShellExecutorNotConfigured = errors.New(executorShellExecutorMissingMessageConstant)
)

// Dependencies wires the collaborators the executor needs.
type Dependencies struct {
	Logger        *zap.Logger
	ShellExecutor *execshell.ShellExecutor
	Uploader      Uploader
	GateEvaluator *GateEvaluator
	Output        io.Writer
	Errors        io.Writer
}

// RuntimeOptions carries per-run execution settings.
type RuntimeOptions struct {
	WorkingDirectory     string
	EnvironmentOverrides map[string]string
	DryRun               bool
}

// Executor runs execution plans strictly sequentially, failing fast on the
// first action that does not succeed.
type Executor struct {
	dependencies Dependencies
	options      RuntimeOptions
}

// NewExecutor validates the dependencies and constructs an Executor.
func NewExecutor(dependencies Dependencies, options RuntimeOptions) (*Executor, error) {
	if dependencies.Logger == nil {
		return nil, ErrExecutorLoggerNotConfigured
	}
	if dependencies.ShellExecutor == nil && !options.DryRun {
		return nil, ErrShellExecutorNotConfigured
	}
	if dependencies.GateEvaluator == nil {
		dependencies.GateEvaluator = NewGateEvaluator(nil)
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	if dependencies.Errors == nil {
		dependencies.Errors = io.Discard
	}
	return &Executor{dependencies: dependencies, options: options}, nil
}

// ExecutePlan runs the plan's steps in order. Actions run one at a time; the
// first failing action aborts the run, leaving the remaining steps skipped.
func (executor *Executor) ExecutePlan(executionContext context.Context, plan ExecutionPlan) (RunResult, error) {
	result := RunResult{
		RunIdentifier: newRunIdentifier(),
		StartTime:     time.Now(),
		StepOutcomes:  make([]StepOutcome, 0, len(plan.Steps)),
	}

	var runError error

	for _, step := range plan.Steps {
		if runError != nil {
			result.StepOutcomes = append(result.StepOutcomes, StepOutcome{TaskName: step.Name, Skipped: true})
			continue
		}

		stepOutcome, stepError := executor.executeStep(executionContext, step)
		result.StepOutcomes = append(result.StepOutcomes, stepOutcome)

		if stepError != nil {
			runError = stepError
			result.Failure = failureFromError(step.Name, stepError)
			if result.Failure.ActionIndex < len(stepOutcome.ActionOutcomes) {
				result.Failure.CommandLine = stepOutcome.ActionOutcomes[result.Failure.ActionIndex].CommandLine
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result, runError
}

func (executor *Executor) executeStep(executionContext context.Context, step TaskDefinition) (StepOutcome, error) {
	stepStart := time.Now()
	stepOutcome := StepOutcome{TaskName: step.Name}

	executor.dependencies.Logger.Info(stepStartedMessageConstant, zap.String(taskNameFieldConstant, step.Name))

	for actionIndex, action := range step.Actions {
		if contextError := executionContext.Err(); contextError != nil {
			stepOutcome.Failed = true
			stepOutcome.Duration = time.Since(stepStart)
			return stepOutcome, TaskExecutionError{TaskName: step.Name, ActionIndex: actionIndex, Cause: fmt.Errorf("%w: %w", ErrRunInterrupted, contextError)}
		}

		actionOutcome, actionError := executor.executeAction(executionContext, step.Name, actionIndex, action)
		stepOutcome.ActionOutcomes = append(stepOutcome.ActionOutcomes, actionOutcome)

		if actionError != nil {
			stepOutcome.Failed = true
			stepOutcome.Duration = time.Since(stepStart)
			executor.dependencies.Logger.Warn(stepFailedMessageConstant,
				zap.String(taskNameFieldConstant, step.Name),
				zap.Int(actionIndexFieldConstant, actionIndex),
				zap.String(actionCommandFieldConstant, actionOutcome.CommandLine),
			)
			return stepOutcome, TaskExecutionError{TaskName: step.Name, ActionIndex: actionIndex, Cause: actionError}
		}
	}

	stepOutcome.Duration = time.Since(stepStart)
	executor.dependencies.Logger.Info(stepCompletedMessageConstant,
		zap.String(taskNameFieldConstant, step.Name),
		zap.Duration(stepDurationFieldConstant, stepOutcome.Duration),
	)
	return stepOutcome, nil
}

func (executor *Executor) executeAction(executionContext context.Context, taskName string, actionIndex int, action ActionDefinition) (ActionOutcome, error) {
	actionOutcome := ActionOutcome{
		TaskName:    taskName,
		ActionIndex: actionIndex,
		CommandLine: action.CommandLine(),
	}

	if executor.options.DryRun {
		fmt.Fprintf(executor.dependencies.Output, dryRunLineTemplateConstant, taskName, actionOutcome.CommandLine)
		return actionOutcome, nil
	}

	actionStart := time.Now()
	executionResult, executionError := executor.dispatchAction(executionContext, action)
	actionOutcome.Duration = time.Since(actionStart)

	if executionError != nil {
		var commandFailedError execshell.CommandFailedError
		if errors.As(executionError, &commandFailedError) {
			executionResult = commandFailedError.Result
		}
		actionOutcome.StandardOutput = executionResult.StandardOutput
		actionOutcome.StandardError = executionResult.StandardError
		actionOutcome.ExitCode = executionResult.ExitCode
		executor.relayActionOutput(taskName, executionResult)
		return actionOutcome, executionError
	}

	actionOutcome.StandardOutput = executionResult.StandardOutput
	actionOutcome.StandardError = executionResult.StandardError
	actionOutcome.ExitCode = executionResult.ExitCode
	executor.relayActionOutput(taskName, executionResult)

	if action.Gate != nil {
		thresholdResult, gateError := executor.dependencies.GateEvaluator.Evaluate(*action.Gate, executionResult.StandardOutput)
		if gateError != nil {
			actionOutcome.ThresholdResult = &thresholdResult
			return actionOutcome, gateError
		}
		actionOutcome.ThresholdResult = &thresholdResult
		executor.dependencies.Logger.Info(gateSatisfiedMessageConstant,
			zap.String(taskNameFieldConstant, taskName),
			zap.String(gateSubjectFieldConstant, thresholdResult.Subject),
			zap.Float64(gateValueFieldConstant, thresholdResult.Value),
			zap.Float64(gateMinimumFieldConstant, thresholdResult.Minimum),
		)
	}

	return actionOutcome, nil
}

func (executor *Executor) dispatchAction(executionContext context.Context, action ActionDefinition) (execshell.ExecutionResult, error) {
	commandDetails := execshell.CommandDetails{
		WorkingDirectory:     executor.options.WorkingDirectory,
		EnvironmentVariables: executor.options.EnvironmentOverrides,
	}

	switch {
	case len(action.Command) > 0:
		commandDetails.Arguments = action.Command[1:]
		return executor.dependencies.ShellExecutor.ExecuteProgram(executionContext, action.Command[0], commandDetails)
	case len(strings.TrimSpace(action.Script)) > 0:
		return executor.dependencies.ShellExecutor.ExecuteScript(executionContext, action.Script, commandDetails)
	case len(strings.TrimSpace(action.Upload)) > 0:
		if executor.dependencies.Uploader == nil {
			return execshell.ExecutionResult{}, ErrUploaderNotConfigured
		}
		return executor.dependencies.Uploader.Upload(executionContext, action.Upload, commandDetails)
	default:
		return execshell.ExecutionResult{}, ErrInvalidTaskDefinition
	}
}

func (executor *Executor) relayActionOutput(taskName string, executionResult execshell.ExecutionResult) {
	relayLines(executor.dependencies.Output, taskName, executionResult.StandardOutput)
	relayLines(executor.dependencies.Errors, taskName, executionResult.StandardError)
}

func relayLines(destination io.Writer, taskName string, capturedText string) {
	if len(strings.TrimSpace(capturedText)) == 0 {
		return
	}
	for _, capturedLine := range strings.Split(strings.TrimRight(capturedText, "\n"), "\n") {
		fmt.Fprintf(destination, outputRelayLineTemplateConstant, taskName, capturedLine)
	}
}

func failureFromError(taskName string, stepError error) *TaskFailure {
	failure := &TaskFailure{TaskName: taskName, Err: stepError}
	var taskExecutionError TaskExecutionError
	if errors.As(stepError, &taskExecutionError) {
		failure.ActionIndex = taskExecutionError.ActionIndex
	}
	return failure
}
