package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

const (
	duplicateTaskErrorTemplateConstant        = "task %q is already registered"
	unknownTaskErrorTemplateConstant          = "unknown task %q"
	danglingPrerequisiteErrorTemplateConstant = "task %q requires unregistered task %q"
)

// DuplicateTaskError reports a second registration under an existing name.
type DuplicateTaskError struct {
	TaskName string
}

// Error describes the duplicate registration.
func (duplicateError DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskErrorTemplateConstant, duplicateError.TaskName)
}

// UnknownTaskError reports a lookup of a name no task was registered under.
type UnknownTaskError struct {
	TaskName string
}

// Error describes the failed lookup.
func (unknownError UnknownTaskError) Error() string {
	return fmt.Sprintf(unknownTaskErrorTemplateConstant, unknownError.TaskName)
}

// DanglingPrerequisiteError reports a prerequisite that names no registered task.
type DanglingPrerequisiteError struct {
	TaskName         string
	PrerequisiteName string
}

// Error describes the dangling reference.
func (danglingError DanglingPrerequisiteError) Error() string {
	return fmt.Sprintf(danglingPrerequisiteErrorTemplateConstant, danglingError.TaskName, danglingError.PrerequisiteName)
}

// Registry stores task definitions by name while preserving registration order.
type Registry struct {
	definitionsByName map[string]TaskDefinition
	registrationOrder []string
}

// NewRegistry constructs an empty Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		definitionsByName: make(map[string]TaskDefinition),
	}
}

// Register adds the definition to the registry, rejecting invalid definitions
// and duplicate names.
func (registry *Registry) Register(definition TaskDefinition) error {
	if validationError := definition.Validate(); validationError != nil {
		return validationError
	}

	taskName := strings.TrimSpace(definition.Name)
	if _, alreadyRegistered := registry.definitionsByName[taskName]; alreadyRegistered {
		return DuplicateTaskError{TaskName: taskName}
	}

	definition.Name = taskName
	registry.definitionsByName[taskName] = definition
	registry.registrationOrder = append(registry.registrationOrder, taskName)
	return nil
}

// Lookup returns the definition registered under the provided name.
func (registry *Registry) Lookup(taskName string) (TaskDefinition, error) {
	definition, registered := registry.definitionsByName[strings.TrimSpace(taskName)]
	if !registered {
		return TaskDefinition{}, UnknownTaskError{TaskName: strings.TrimSpace(taskName)}
	}
	return definition, nil
}

// TaskNames returns the registered names in registration order.
func (registry *Registry) TaskNames() []string {
	return append([]string(nil), registry.registrationOrder...)
}

// ValidateAll verifies that every prerequisite of every registered task names
// a registered task, aggregating all dangling references.
func (registry *Registry) ValidateAll() error {
	var validationErrors []error
	for _, taskName := range registry.registrationOrder {
		definition := registry.definitionsByName[taskName]
		for _, prerequisiteName := range definition.Prerequisites {
			trimmedPrerequisiteName := strings.TrimSpace(prerequisiteName)
			if _, registered := registry.definitionsByName[trimmedPrerequisiteName]; !registered {
				validationErrors = append(validationErrors, DanglingPrerequisiteError{
					TaskName:         taskName,
					PrerequisiteName: trimmedPrerequisiteName,
				})
			}
		}
	}
	return errors.Join(validationErrors...)
}
