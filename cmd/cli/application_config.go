package cli

import (
	_ "embed"
)

//go:embed config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns the baseline configuration document
// shipped with the binary together with its format name.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfigurationContent, configurationTypeConstant
}

// ApplicationConfiguration captures the persisted configuration consumed by
// the command-line application.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Run    ApplicationRunConfiguration    `mapstructure:"run"`
}

// ApplicationCommonConfiguration stores logging and execution defaults shared
// across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	DryRun    bool   `mapstructure:"dry_run"`
}

// ApplicationRunConfiguration stores pipeline execution defaults for the run
// and tasks commands.
type ApplicationRunConfiguration struct {
	DefaultTask   string            `mapstructure:"default_task"`
	PipelineFile  string            `mapstructure:"pipeline_file"`
	Interpreter   string            `mapstructure:"interpreter"`
	Package       string            `mapstructure:"package"`
	UploadCommand []string          `mapstructure:"upload_command"`
	Variables     map[string]string `mapstructure:"variables"`
}

type configurationInitializationPlan struct {
	DirectoryPath string
	FilePath      string
}
