package run

import (
	"strings"
)

const (
	defaultTaskNameConstant    = "test"
	defaultInterpreterConstant = "python3"
	defaultPackageNameConstant = "relpipe"
)

// CommandConfiguration captures pipeline execution defaults for the run and
// tasks commands.
type CommandConfiguration struct {
	DefaultTask   string
	PipelineFile  string
	Interpreter   string
	PackageName   string
	UploadCommand []string
	Variables     map[string]string
	DryRun        bool
}

// DefaultCommandConfiguration provides baseline settings for pipeline commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		DefaultTask: defaultTaskNameConstant,
		Interpreter: defaultInterpreterConstant,
		PackageName: defaultPackageNameConstant,
	}
}

// Sanitize normalizes configuration values and fills blanks with defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.DefaultTask = strings.TrimSpace(configuration.DefaultTask)
	if len(sanitized.DefaultTask) == 0 {
		sanitized.DefaultTask = defaultTaskNameConstant
	}

	sanitized.PipelineFile = strings.TrimSpace(configuration.PipelineFile)

	sanitized.Interpreter = strings.TrimSpace(configuration.Interpreter)
	if len(sanitized.Interpreter) == 0 {
		sanitized.Interpreter = defaultInterpreterConstant
	}

	sanitized.PackageName = strings.TrimSpace(configuration.PackageName)
	if len(sanitized.PackageName) == 0 {
		sanitized.PackageName = defaultPackageNameConstant
	}

	return sanitized
}

func resolveConfiguration(provider func() CommandConfiguration) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration()
	}

	provided := provider()
	return provided.Sanitize()
}
