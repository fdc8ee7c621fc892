package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	runcmd "github.com/tyemirov/relpipe/cmd/cli/run"
)

func (application *Application) registerCommands(rootCommand *cobra.Command) {
	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	runBuilder := runcmd.CommandBuilder{
		LoggerProvider:               loggerProvider,
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider:        application.runCommandConfiguration,
	}
	if runCommand, runBuildError := runBuilder.Build(); runBuildError == nil {
		rootCommand.AddCommand(runCommand)
	}

	tasksBuilder := runcmd.TasksCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.runCommandConfiguration,
	}
	if tasksCommand, tasksBuildError := tasksBuilder.Build(); tasksBuildError == nil {
		rootCommand.AddCommand(tasksCommand)
	}

	rootCommand.AddCommand(application.newVersionCommand())
	rootCommand.AddCommand(application.newInitConfigCommand())
}

// runCommandConfiguration maps the loaded application configuration onto the
// run command's configuration surface.
func (application *Application) runCommandConfiguration() runcmd.CommandConfiguration {
	runConfiguration := runcmd.CommandConfiguration{
		DefaultTask:   application.configuration.Run.DefaultTask,
		PipelineFile:  application.configuration.Run.PipelineFile,
		Interpreter:   application.configuration.Run.Interpreter,
		PackageName:   application.configuration.Run.Package,
		UploadCommand: append([]string(nil), application.configuration.Run.UploadCommand...),
		Variables:     application.configuration.Run.Variables,
		DryRun:        application.configuration.Common.DryRun,
	}
	return runConfiguration.Sanitize()
}

func (application *Application) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:           versionCommandUseConstant,
		Short:         versionCommandShortDescriptionConstant,
		Long:          versionCommandLongDescriptionConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			application.printVersion(command)
			return nil
		},
	}
}

func (application *Application) newInitConfigCommand() *cobra.Command {
	initConfigCommand := &cobra.Command{
		Use:           initConfigCommandUseConstant,
		Short:         initConfigCommandShortDescriptionConstant,
		Long:          initConfigCommandLongDescriptionConstant,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			initializationScope := initConfigScopeLocalConstant
			if len(arguments) > 0 {
				initializationScope = arguments[0]
			}
			return application.initializeConfigurationFile(initializationScope)
		},
	}

	initConfigCommand.Flags().BoolVar(&application.forceConfigurationInit, initConfigForceFlagNameConstant, false, initConfigForceFlagUsageConstant)

	return initConfigCommand
}
