package taskrunner

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/relpipe/internal/execshell"
	"github.com/tyemirov/relpipe/internal/pipeline"
)

var (
	errOutputWriterMissing = errors.New("taskrunner.dependencies.output_writer: not provided")
	errErrorWriterMissing  = errors.New("taskrunner.dependencies.error_writer: not provided")
)

// DependenciesConfig captures providers required to build pipeline dependencies.
type DependenciesConfig struct {
	LoggerProvider               func() *zap.Logger
	HumanReadableLoggingProvider func() bool
	CommandRunner                execshell.CommandRunner
	Uploader                     pipeline.Uploader
	ParserRegistry               *pipeline.ParserRegistry
	UploadCommand                []string
}

// DependenciesOptions allows per-command overrides when resolving pipeline dependencies.
type DependenciesOptions struct {
	Command *cobra.Command
	Output  io.Writer
	Errors  io.Writer
}

// DependenciesResult exposes resolved collaborators along with their pipeline wrapper.
type DependenciesResult struct {
	Pipeline      pipeline.Dependencies
	ShellExecutor *execshell.ShellExecutor
	Uploader      pipeline.Uploader
}

// BuildDependencies resolves shell, upload, gate, and output collaborators for pipeline execution.
func BuildDependencies(config DependenciesConfig, options DependenciesOptions) (DependenciesResult, error) {
	logger := resolveLogger(config.LoggerProvider)
	humanReadable := false
	if config.HumanReadableLoggingProvider != nil {
		humanReadable = config.HumanReadableLoggingProvider()
	}

	commandRunner := config.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, humanReadable)
	if executorError != nil {
		return DependenciesResult{}, fmt.Errorf("taskrunner.dependencies.shell_executor: %w", executorError)
	}

	uploader := config.Uploader
	if uploader == nil {
		uploader = pipeline.NewCommandUploader(shellExecutor, config.UploadCommand)
	}

	outputWriter := resolveWriter(options.Output, options.Command, true)
	if outputWriter == nil {
		return DependenciesResult{}, errOutputWriterMissing
	}
	errorWriter := resolveWriter(options.Errors, options.Command, false)
	if errorWriter == nil {
		return DependenciesResult{}, errErrorWriterMissing
	}

	pipelineDependencies := pipeline.Dependencies{
		Logger:        logger,
		ShellExecutor: shellExecutor,
		Uploader:      uploader,
		GateEvaluator: pipeline.NewGateEvaluator(config.ParserRegistry),
		Output:        outputWriter,
		Errors:        errorWriter,
	}

	return DependenciesResult{
		Pipeline:      pipelineDependencies,
		ShellExecutor: shellExecutor,
		Uploader:      uploader,
	}, nil
}

func resolveLogger(provider func() *zap.Logger) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveWriter(provided io.Writer, command *cobra.Command, useStdout bool) io.Writer {
	if provided != nil {
		return provided
	}
	if command != nil {
		if useStdout {
			return command.OutOrStdout()
		}
		return command.ErrOrStderr()
	}
	return nil
}
