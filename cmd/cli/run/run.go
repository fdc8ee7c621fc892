// Package run implements the pipeline execution commands of the relpipe CLI.
package run

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tyemirov/relpipe/internal/execshell"
	"github.com/tyemirov/relpipe/internal/pipeline"
	"github.com/tyemirov/relpipe/internal/utils"
	flagutils "github.com/tyemirov/relpipe/internal/utils/flags"
	"github.com/tyemirov/relpipe/pkg/taskrunner"
)

const (
	runCommandUseConstant              = "run [task ...]"
	runCommandShortDescriptionConstant = "Run pipeline tasks with their prerequisites"
	runCommandLongDescriptionConstant  = "run plans the requested tasks together with their prerequisites in dependency order, executes each action sequentially, and stops at the first failure."
	runCommandExampleConstant          = "  relpipe run\n  relpipe run release\n  relpipe run clean coverage --var interpreter=python3.12\n  relpipe run release --dry-run"
)

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	PresetCatalogFactory         func() pipeline.PresetCatalog
	CommandRunner                execshell.CommandRunner
	Uploader                     pipeline.Uploader
	ParserRegistry               *pipeline.ParserRegistry
	ExecutorFactory              taskrunner.Factory
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           runCommandUseConstant,
		Short:         runCommandShortDescriptionConstant,
		Long:          runCommandLongDescriptionConstant,
		Example:       runCommandExampleConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	bindPipelineFlags(command)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	registry, registryError := resolveRegistry(command, configuration, builder.PresetCatalogFactory)
	if registryError != nil {
		return registryError
	}

	dryRun := configuration.DryRun
	if executionFlags, overridesProvided := flagutils.ResolveExecutionFlags(command); overridesProvided && executionFlags.DryRunSet {
		dryRun = executionFlags.DryRun
	}

	dependenciesOptions := taskrunner.DependenciesOptions{Command: command}
	if command != nil {
		dependenciesOptions.Output = utils.NewFlushingWriter(command.OutOrStdout())
		dependenciesOptions.Errors = utils.NewFlushingWriter(command.ErrOrStderr())
	}

	dependenciesResult, dependenciesError := taskrunner.BuildDependencies(
		taskrunner.DependenciesConfig{
			LoggerProvider:               builder.LoggerProvider,
			HumanReadableLoggingProvider: builder.HumanReadableLoggingProvider,
			CommandRunner:                builder.CommandRunner,
			Uploader:                     builder.Uploader,
			ParserRegistry:               builder.ParserRegistry,
			UploadCommand:                configuration.UploadCommand,
		},
		dependenciesOptions,
	)
	if dependenciesError != nil {
		return dependenciesError
	}

	executionContext, stopSignalHandling := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignalHandling()

	runner := taskrunner.Resolve(builder.ExecutorFactory, dependenciesResult.Pipeline)

	_, runError := runner.Run(
		executionContext,
		registry,
		requestedTasks(arguments, configuration.DefaultTask),
		pipeline.RuntimeOptions{DryRun: dryRun},
	)

	return runError
}
