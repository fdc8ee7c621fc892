// Package cli wires the relpipe command-line application: configuration
// loading, logger construction, and the command hierarchy.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/relpipe/internal/utils"
	flagutils "github.com/tyemirov/relpipe/internal/utils/flags"
	"github.com/tyemirov/relpipe/internal/version"
)

const (
	applicationNameConstant             = "relpipe"
	applicationShortDescriptionConstant = "Release pipeline task orchestrator"
	applicationLongDescriptionConstant  = "relpipe runs declarative release pipelines built from tasks, ordered prerequisites, fail-fast shell actions, and threshold quality gates."

	configFileFlagNameConstant  = "config"
	configFileFlagUsageConstant = "Path to the configuration file"
	logLevelFlagNameConstant    = "log-level"
	logLevelFlagUsageConstant   = "Log level (debug, info, warn, error)"
	logFormatFlagNameConstant   = "log-format"
	logFormatFlagUsageConstant  = "Log format (structured, console)"
	versionFlagNameConstant     = "version"
	versionFlagUsageConstant    = "Print the application version and exit"

	environmentPrefixConstant                          = "RELPIPE"
	configurationNameConstant                          = "config"
	configurationTypeConstant                          = "yaml"
	configurationFileNameConstant                      = "config.yaml"
	configurationSearchPathEnvironmentVariableConstant = "RELPIPE_CONFIG_SEARCH_PATH"
	defaultConfigurationSearchPathConstant             = "."
	userConfigurationDirectoryNameConstant             = ".relpipe"
	xdgConfigHomeEnvironmentVariableConstant           = "XDG_CONFIG_HOME"

	commonLogLevelConfigurationKeyConstant  = "common.log_level"
	commonLogFormatConfigurationKeyConstant = "common.log_format"
	commonDryRunConfigurationKeyConstant    = "common.dry_run"
	runDefaultTaskConfigurationKeyConstant  = "run.default_task"
	runInterpreterConfigurationKeyConstant  = "run.interpreter"
	runPackageConfigurationKeyConstant      = "run.package"
	defaultTaskNameConstant                 = "test"
	defaultInterpreterConstant              = "python3"
	defaultPackageNameConstant              = "relpipe"

	configurationLoadErrorTemplateConstant = "failed to load configuration: %w"
	loggerCreationErrorTemplateConstant    = "failed to initialize logging: %w"
	loggerSyncErrorTemplateConstant        = "failed to flush logger: %w"
	loggerNotInitializedMessageConstant    = "logger not initialized"

	configurationInitializedMessageConstant         = "configuration initialized"
	configurationInitializedConsoleTemplateConstant = "%s | log level=%s | log format=%s | config file=%s"
	noConfigurationFileLabelConstant                = "none"
	configurationFileFieldNameConstant              = "config_file"
	logLevelFieldNameConstant                       = "log_level"
	logFormatFieldNameConstant                      = "log_format"
	commandFieldNameConstant                        = "command"
	argumentCountFieldNameConstant                  = "argument_count"
	argumentsFieldNameConstant                      = "arguments"
	rootCommandInfoMessageConstant                  = "root command invoked"
	rootCommandArgumentsMessageConstant             = "root command arguments"

	versionCommandUseConstant              = "version"
	versionCommandShortDescriptionConstant = "Print the relpipe version"
	versionCommandLongDescriptionConstant  = "version prints the resolved relpipe build version."
	versionOutputTemplateConstant          = "relpipe version: %s\n"

	initConfigCommandUseConstant                      = "init-config [local|user]"
	initConfigCommandShortDescriptionConstant         = "Write the embedded default configuration to disk"
	initConfigCommandLongDescriptionConstant          = "init-config scaffolds a configuration file. The local scope writes ./config.yaml and the user scope writes $HOME/.relpipe/config.yaml."
	initConfigForceFlagNameConstant                   = "force"
	initConfigForceFlagUsageConstant                  = "Overwrite an existing configuration file"
	initConfigScopeLocalConstant                      = "local"
	initConfigScopeUserConstant                       = "user"
	configurationWrittenMessageConstant               = "configuration file written"
	unsupportedScopeTemplateConstant                  = "unsupported configuration scope %q (expected local or user)"
	workingDirectoryErrorTemplateConstant             = "failed to resolve working directory: %w"
	homeDirectoryErrorTemplateConstant                = "failed to resolve home directory: %w"
	configurationDirectoryConflictTemplateConstant    = "configuration directory path %s exists and is not a directory"
	configurationDirectoryCreateErrorTemplateConstant = "failed to create configuration directory %s: %w"
	configurationFileIsDirectoryTemplateConstant      = "configuration file path %s is a directory"
	configurationFileExistsTemplateConstant           = "configuration file %s already exists (use --force to overwrite)"
	configurationFileInspectErrorTemplateConstant     = "failed to inspect configuration file %s: %w"
	configurationFileWriteErrorTemplateConstant       = "failed to write configuration file %s: %w"
	embeddedConfigurationUnavailableMessageConstant   = "embedded default configuration unavailable"

	configurationDirectoryPermissionsConstant = 0o755
	configurationFilePermissionsConstant      = 0o600
)

// Application wires the root command with configuration loading, logging, and
// the relpipe subcommands.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	commandContextAccessor utils.CommandContextAccessor
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	versionFlagValue       bool
	forceConfigurationInit bool
	versionResolver        func() string
	exitFunction           func(int)
}

// NewApplication assembles the root command with its persistent flags and
// subcommands.
func NewApplication() *Application {
	application := &Application{
		loggerFactory:          utils.NewLoggerFactory(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		exitFunction:           os.Exit,
	}
	application.versionResolver = application.resolveVersion

	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		application.resolveConfigurationSearchPaths(),
	)
	embeddedConfigurationContent, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationContent, embeddedConfigurationType)
	application.configurationLoader = configurationLoader

	rootCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if initializationError := application.initializeConfiguration(command); initializationError != nil {
				return initializationError
			}

			if application.versionFlagValue {
				application.printVersion(command)
				application.exitFunction(0)
			}

			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	rootCommand.SetContext(context.Background())
	rootCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	rootCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	rootCommand.PersistentFlags().BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	flagutils.BindExecutionFlags(
		rootCommand,
		flagutils.ExecutionDefaults{},
		flagutils.ExecutionFlagDefinitions{
			DryRun: flagutils.ExecutionFlagDefinition{
				Name:    flagutils.DryRunFlagName,
				Usage:   flagutils.DryRunFlagUsage,
				Enabled: true,
			},
		},
	)

	application.registerCommands(rootCommand)
	application.rootCommand = rootCommand

	return application
}

// Execute runs the root command and flushes buffered log output.
func (application *Application) Execute() error {
	application.rootCommand.SetArgs(os.Args[1:])

	executionError := application.rootCommand.Execute()

	if syncError := application.flushLogger(); syncError != nil {
		if executionError != nil {
			return executionError
		}
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}

	return executionError
}

// Execute constructs an application instance and runs the root command.
func Execute() error {
	return NewApplication().Execute()
}

// InitializeForCommand loads configuration and loggers as if the named
// command were about to run. Intended for embedding scenarios and tests.
func (application *Application) InitializeForCommand(commandUse string) error {
	temporaryCommand := &cobra.Command{Use: commandUse}
	temporaryCommand.SetContext(context.Background())
	return application.initializeConfiguration(temporaryCommand)
}

// ConfigFileUsed reports the configuration file that was merged, if any.
func (application *Application) ConfigFileUsed() string {
	return application.configurationMetadata.ConfigFileUsed
}

func (application *Application) resolveConfigurationSearchPaths() []string {
	if overrideValue := os.Getenv(configurationSearchPathEnvironmentVariableConstant); len(strings.TrimSpace(overrideValue)) > 0 {
		overridePaths := make([]string, 0)
		for _, candidatePath := range strings.Split(overrideValue, string(os.PathListSeparator)) {
			trimmedPath := strings.TrimSpace(candidatePath)
			if len(trimmedPath) == 0 {
				continue
			}
			overridePaths = appendUniquePath(overridePaths, trimmedPath)
		}
		if len(overridePaths) > 0 {
			return overridePaths
		}
		return []string{defaultConfigurationSearchPathConstant}
	}

	searchPaths := []string{defaultConfigurationSearchPathConstant}
	for _, userDirectoryPath := range resolveUserConfigurationDirectoryPaths() {
		searchPaths = appendUniquePath(searchPaths, userDirectoryPath)
	}

	return searchPaths
}

func resolveUserConfigurationDirectoryPaths() []string {
	candidatePaths := make([]string, 0, 3)

	if xdgConfigHome := strings.TrimSpace(os.Getenv(xdgConfigHomeEnvironmentVariableConstant)); len(xdgConfigHome) > 0 {
		candidatePaths = appendUniquePath(candidatePaths, filepath.Join(xdgConfigHome, userConfigurationDirectoryNameConstant))
	}

	if userConfigDirectory, configDirectoryError := os.UserConfigDir(); configDirectoryError == nil {
		trimmedConfigDirectory := strings.TrimSpace(userConfigDirectory)
		if len(trimmedConfigDirectory) > 0 {
			candidatePaths = appendUniquePath(candidatePaths, filepath.Join(trimmedConfigDirectory, userConfigurationDirectoryNameConstant))
		}
	}

	if homeDirectory, homeDirectoryError := os.UserHomeDir(); homeDirectoryError == nil {
		trimmedHomeDirectory := strings.TrimSpace(homeDirectory)
		if len(trimmedHomeDirectory) > 0 {
			candidatePaths = appendUniquePath(candidatePaths, filepath.Join(trimmedHomeDirectory, userConfigurationDirectoryNameConstant))
		}
	}

	return candidatePaths
}

func appendUniquePath(paths []string, candidatePath string) []string {
	for _, existingPath := range paths {
		if existingPath == candidatePath {
			return paths
		}
	}
	return append(paths, candidatePath)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigurationKeyConstant:  string(utils.LogLevelError),
		commonLogFormatConfigurationKeyConstant: string(utils.LogFormatStructured),
		commonDryRunConfigurationKeyConstant:    false,
		runDefaultTaskConfigurationKeyConstant:  defaultTaskNameConstant,
		runInterpreterConfigurationKeyConstant:  defaultInterpreterConstant,
		runPackageConfigurationKeyConstant:      defaultPackageNameConstant,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(
		application.configurationFilePath,
		defaultValues,
		&application.configuration,
	)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	if application.logger == nil {
		application.logger = zap.NewNop()
	}
	application.consoleLogger = loggerOutputs.ConsoleLogger
	if application.consoleLogger == nil {
		application.consoleLogger = zap.NewNop()
	}

	application.logConfigurationInitialization()

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithExecutionFlags(updatedContext, flagutils.CollectExecutionFlags(command))
		updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, application.configuration.Common.LogLevel)

		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(application.configuration.Common.LogFormat, string(utils.LogFormatConsole))
}

func (application *Application) logConfigurationInitialization() {
	configurationFileUsed := strings.TrimSpace(application.configurationMetadata.ConfigFileUsed)
	if len(configurationFileUsed) == 0 {
		configurationFileUsed = noConfigurationFileLabelConstant
	}

	if application.humanReadableLoggingEnabled() {
		application.consoleLogger.Debug(fmt.Sprintf(
			configurationInitializedConsoleTemplateConstant,
			applicationNameConstant,
			application.configuration.Common.LogLevel,
			application.configuration.Common.LogFormat,
			configurationFileUsed,
		))
		return
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(logLevelFieldNameConstant, application.configuration.Common.LogLevel),
		zap.String(logFormatFieldNameConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldNameConstant, configurationFileUsed),
	)
}

func (application *Application) resolveVersion() string {
	return version.Detect(version.Dependencies{})
}

func (application *Application) printVersion(command *cobra.Command) {
	outputWriter := io.Writer(os.Stdout)
	if command != nil {
		outputWriter = command.OutOrStdout()
	}
	fmt.Fprintf(outputWriter, versionOutputTemplateConstant, application.versionResolver())
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(commandFieldNameConstant, command.Name()),
		zap.Int(argumentCountFieldNameConstant, len(arguments)),
	)
	application.logger.Debug(
		rootCommandArgumentsMessageConstant,
		zap.Strings(argumentsFieldNameConstant, arguments),
	)

	return command.Help()
}

func (application *Application) initializeConfigurationFile(initializationScope string) error {
	initializationPlan, planError := application.resolveConfigurationInitializationPlan(initializationScope)
	if planError != nil {
		return planError
	}

	configurationContent, _ := EmbeddedDefaultConfiguration()
	if len(configurationContent) == 0 {
		return errors.New(embeddedConfigurationUnavailableMessageConstant)
	}

	if writeError := application.writeConfigurationFile(initializationPlan, configurationContent); writeError != nil {
		return writeError
	}

	application.logger.Info(
		configurationWrittenMessageConstant,
		zap.String(configurationFileFieldNameConstant, initializationPlan.FilePath),
	)

	return nil
}

func (application *Application) resolveConfigurationInitializationPlan(initializationScope string) (configurationInitializationPlan, error) {
	normalizedScope := strings.ToLower(strings.TrimSpace(initializationScope))

	switch normalizedScope {
	case "", initConfigScopeLocalConstant:
		workingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return configurationInitializationPlan{}, fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
		}
		return configurationInitializationPlan{
			DirectoryPath: workingDirectory,
			FilePath:      filepath.Join(workingDirectory, configurationFileNameConstant),
		}, nil
	case initConfigScopeUserConstant:
		homeDirectory, homeDirectoryError := os.UserHomeDir()
		if homeDirectoryError != nil {
			return configurationInitializationPlan{}, fmt.Errorf(homeDirectoryErrorTemplateConstant, homeDirectoryError)
		}
		configurationDirectory := filepath.Join(homeDirectory, userConfigurationDirectoryNameConstant)
		return configurationInitializationPlan{
			DirectoryPath: configurationDirectory,
			FilePath:      filepath.Join(configurationDirectory, configurationFileNameConstant),
		}, nil
	default:
		return configurationInitializationPlan{}, fmt.Errorf(unsupportedScopeTemplateConstant, initializationScope)
	}
}

func (application *Application) writeConfigurationFile(initializationPlan configurationInitializationPlan, configurationContent []byte) error {
	directoryInfo, directoryStatError := os.Stat(initializationPlan.DirectoryPath)
	switch {
	case directoryStatError == nil:
		if !directoryInfo.IsDir() {
			return fmt.Errorf(configurationDirectoryConflictTemplateConstant, initializationPlan.DirectoryPath)
		}
	case errors.Is(directoryStatError, os.ErrNotExist):
		if mkdirError := os.MkdirAll(initializationPlan.DirectoryPath, configurationDirectoryPermissionsConstant); mkdirError != nil {
			return fmt.Errorf(configurationDirectoryCreateErrorTemplateConstant, initializationPlan.DirectoryPath, mkdirError)
		}
	default:
		return fmt.Errorf(configurationDirectoryCreateErrorTemplateConstant, initializationPlan.DirectoryPath, directoryStatError)
	}

	fileInfo, fileStatError := os.Stat(initializationPlan.FilePath)
	switch {
	case fileStatError == nil:
		if fileInfo.IsDir() {
			return fmt.Errorf(configurationFileIsDirectoryTemplateConstant, initializationPlan.FilePath)
		}
		if !application.forceConfigurationInit {
			return fmt.Errorf(configurationFileExistsTemplateConstant, initializationPlan.FilePath)
		}
	case errors.Is(fileStatError, os.ErrNotExist):
	default:
		return fmt.Errorf(configurationFileInspectErrorTemplateConstant, initializationPlan.FilePath, fileStatError)
	}

	if writeError := os.WriteFile(initializationPlan.FilePath, configurationContent, configurationFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(configurationFileWriteErrorTemplateConstant, initializationPlan.FilePath, writeError)
	}

	return nil
}

func (application *Application) flushLogger() error {
	if syncError := syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}
	return syncLoggerInstance(application.consoleLogger)
}

func syncLoggerInstance(loggerInstance *zap.Logger) error {
	if loggerInstance == nil {
		return nil
	}

	syncError := loggerInstance.Sync()
	if syncError == nil {
		return nil
	}

	if errors.Is(syncError, syscall.ENOTSUP) ||
		errors.Is(syncError, syscall.EINVAL) ||
		errors.Is(syncError, syscall.EBADF) ||
		errors.Is(syncError, syscall.ENOTTY) {
		return nil
	}

	return syncError
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	if command.PersistentFlags().Changed(flagName) {
		return true
	}
	if command.InheritedFlags().Changed(flagName) {
		return true
	}

	rootCommand := command.Root()
	if rootCommand != nil && rootCommand != command && rootCommand.PersistentFlags().Changed(flagName) {
		return true
	}

	return false
}
