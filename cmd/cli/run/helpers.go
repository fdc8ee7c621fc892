package run

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/relpipe/internal/pipeline"
	flagutils "github.com/tyemirov/relpipe/internal/utils/flags"
)

const (
	pipelineFlagNameConstant        = "pipeline"
	pipelineFlagUsageConstant       = "Path to the pipeline definition file"
	variableFlagNameConstant        = "var"
	variableFlagUsageConstant       = "Set a pipeline template variable (key=value, repeatable)"
	defaultPipelineFileNameConstant = "pipeline.yaml"
	presetLoadErrorTemplateConstant = "unable to load embedded pipeline %q: %w"
	presetMissingTemplateConstant   = "embedded pipeline %q not found"
)

// LoggerProvider supplies the logger used during command execution.
type LoggerProvider func() *zap.Logger

func bindPipelineFlags(command *cobra.Command) {
	command.Flags().String(pipelineFlagNameConstant, "", pipelineFlagUsageConstant)
	command.Flags().StringArray(variableFlagNameConstant, nil, variableFlagUsageConstant)
}

// resolveRegistry loads the active pipeline definition. An explicit --pipeline
// path wins, then the configured pipeline file, then ./pipeline.yaml when
// present, and finally the embedded release pipeline.
func resolveRegistry(command *cobra.Command, configuration CommandConfiguration, presetCatalogFactory func() pipeline.PresetCatalog) (*pipeline.Registry, error) {
	var variableAssignments []string
	explicitPipelinePath := ""

	if command != nil {
		if flagValue, _, flagError := flagutils.StringFlag(command, pipelineFlagNameConstant); flagError == nil {
			explicitPipelinePath = strings.TrimSpace(flagValue)
		} else if !errors.Is(flagError, flagutils.ErrFlagNotDefined) {
			return nil, flagError
		}

		assignments, _, assignmentsError := flagutils.StringArrayFlag(command, variableFlagNameConstant)
		if assignmentsError != nil && !errors.Is(assignmentsError, flagutils.ErrFlagNotDefined) {
			return nil, assignmentsError
		}
		variableAssignments = assignments
	}

	variables, variablesError := resolveVariables(configuration, variableAssignments)
	if variablesError != nil {
		return nil, variablesError
	}

	pipelinePath := explicitPipelinePath
	if len(pipelinePath) == 0 {
		pipelinePath = configuration.PipelineFile
	}
	if len(pipelinePath) == 0 {
		if _, statError := os.Stat(defaultPipelineFileNameConstant); statError == nil {
			pipelinePath = defaultPipelineFileNameConstant
		}
	}

	if len(pipelinePath) > 0 {
		return pipeline.LoadPipeline(pipelinePath, variables)
	}

	presetCatalog := resolvePresetCatalog(presetCatalogFactory)
	registry, presetFound, presetError := presetCatalog.Load(pipeline.ReleasePresetName, variables)
	if presetError != nil {
		return nil, fmt.Errorf(presetLoadErrorTemplateConstant, pipeline.ReleasePresetName, presetError)
	}
	if !presetFound {
		return nil, fmt.Errorf(presetMissingTemplateConstant, pipeline.ReleasePresetName)
	}

	return registry, nil
}

func resolvePresetCatalog(factory func() pipeline.PresetCatalog) pipeline.PresetCatalog {
	if factory != nil {
		if catalog := factory(); catalog != nil {
			return catalog
		}
	}
	return pipeline.NewEmbeddedPresetCatalog()
}

// requestedTasks trims the positional task arguments and falls back to the
// configured default task when none remain.
func requestedTasks(arguments []string, defaultTaskName string) []string {
	requested := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if len(trimmedArgument) == 0 {
			continue
		}
		requested = append(requested, trimmedArgument)
	}

	if len(requested) == 0 {
		return []string{defaultTaskName}
	}

	return requested
}
