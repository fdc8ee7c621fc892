package run

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/relpipe/internal/pipeline"
	"github.com/tyemirov/relpipe/internal/utils"
)

const (
	tasksCommandUseConstant              = "tasks"
	tasksCommandShortDescriptionConstant = "List the tasks of the active pipeline"
	tasksCommandLongDescriptionConstant  = "tasks renders the registered tasks of the active pipeline definition in registration order, including prerequisites and action counts."
	tasksCommandExampleConstant          = "  relpipe tasks\n  relpipe tasks --pipeline ./pipeline.yaml"
	tasksHeaderMessageConstant           = "Registered tasks:"
	tasksEmptyMessageConstant            = "No tasks defined."
	taskEntryPrefixTemplateConstant      = "  - %s"
	taskDescriptionTemplateConstant      = ": %s"
	taskNeedsTemplateConstant            = " [needs: %s]"
	taskActionCountTemplateConstant      = " [actions: %d]"
	taskNeedsSeparatorConstant           = ", "
)

// TasksCommandBuilder assembles the tasks listing command.
type TasksCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	PresetCatalogFactory  func() pipeline.PresetCatalog
}

// Build constructs the tasks command.
func (builder *TasksCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           tasksCommandUseConstant,
		Short:         tasksCommandShortDescriptionConstant,
		Long:          tasksCommandLongDescriptionConstant,
		Example:       tasksCommandExampleConstant,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	bindPipelineFlags(command)

	return command, nil
}

func (builder *TasksCommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)

	registry, registryError := resolveRegistry(command, configuration, builder.PresetCatalogFactory)
	if registryError != nil {
		return registryError
	}

	return printTaskList(command, registry)
}

func printTaskList(command *cobra.Command, registry *pipeline.Registry) error {
	output := utils.NewFlushingWriter(command.OutOrStdout())

	taskNames := registry.TaskNames()
	if len(taskNames) == 0 {
		fmt.Fprintln(output, tasksEmptyMessageConstant)
		return nil
	}

	fmt.Fprintln(output, tasksHeaderMessageConstant)
	for _, taskName := range taskNames {
		definition, lookupError := registry.Lookup(taskName)
		if lookupError != nil {
			return lookupError
		}

		entryBuilder := strings.Builder{}
		entryBuilder.WriteString(fmt.Sprintf(taskEntryPrefixTemplateConstant, definition.Name))
		if description := strings.TrimSpace(definition.Description); len(description) > 0 {
			entryBuilder.WriteString(fmt.Sprintf(taskDescriptionTemplateConstant, description))
		}
		if len(definition.Prerequisites) > 0 {
			entryBuilder.WriteString(fmt.Sprintf(taskNeedsTemplateConstant, strings.Join(definition.Prerequisites, taskNeedsSeparatorConstant)))
		}
		entryBuilder.WriteString(fmt.Sprintf(taskActionCountTemplateConstant, len(definition.Actions)))

		fmt.Fprintln(output, entryBuilder.String())
	}

	return nil
}
