package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tyemirov/relpipe/internal/pipeline"
)

const registryMissingMessageConstant = "task registry not provided"

// ErrRegistryNotProvided indicates Run was invoked without a task registry.
var ErrRegistryNotProvided = errors.New(registryMissingMessageConstant)

// Executor plans and runs pipeline tasks against a task registry.
type Executor interface {
	Run(ctx context.Context, registry *pipeline.Registry, requestedTaskNames []string, options pipeline.RuntimeOptions) (pipeline.RunResult, error)
}

// Factory constructs an Executor given pipeline dependencies.
type Factory func(pipeline.Dependencies) Executor

type pipelineRunner struct {
	dependencies pipeline.Dependencies
}

func (runner pipelineRunner) Run(ctx context.Context, registry *pipeline.Registry, requestedTaskNames []string, options pipeline.RuntimeOptions) (pipeline.RunResult, error) {
	if registry == nil {
		return pipeline.RunResult{}, ErrRegistryNotProvided
	}

	if validationError := registry.ValidateAll(); validationError != nil {
		return pipeline.RunResult{}, validationError
	}

	plan, planError := pipeline.BuildPlan(registry, requestedTaskNames)
	if planError != nil {
		return pipeline.RunResult{}, planError
	}

	executor, executorError := pipeline.NewExecutor(runner.dependencies, options)
	if executorError != nil {
		return pipeline.RunResult{}, executorError
	}

	return executor.ExecutePlan(ctx, plan)
}

// Resolve returns either the provided factory result or the default pipeline runner.
func Resolve(factory Factory, dependencies pipeline.Dependencies) Executor {
	var base Executor
	if factory != nil {
		base = factory(dependencies)
	}
	if base == nil {
		base = pipelineRunner{dependencies: dependencies}
	}
	return summaryExecutor{
		delegate:     base,
		dependencies: dependencies,
	}
}

type summaryExecutor struct {
	delegate     Executor
	dependencies pipeline.Dependencies
}

func (executor summaryExecutor) Run(ctx context.Context, registry *pipeline.Registry, requestedTaskNames []string, options pipeline.RuntimeOptions) (pipeline.RunResult, error) {
	outcome, runError := executor.delegate.Run(ctx, registry, requestedTaskNames, options)
	if !options.DryRun {
		executor.printSummary(outcome)
	}
	return outcome, runError
}

func (executor summaryExecutor) printSummary(outcome pipeline.RunResult) {
	writer := executor.summaryWriter()
	if writer == nil {
		return
	}

	summary := RenderSummaryLine(outcome)
	if len(strings.TrimSpace(summary)) == 0 {
		return
	}
	fmt.Fprintln(writer, summary)
}

func (executor summaryExecutor) summaryWriter() io.Writer {
	if executor.dependencies.Errors != nil {
		return executor.dependencies.Errors
	}
	if executor.dependencies.Output != nil {
		return executor.dependencies.Output
	}
	return nil
}
