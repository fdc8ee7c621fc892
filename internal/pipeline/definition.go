// Package pipeline implements the task-dependency orchestrator: declarative
// task definitions, dependency planning, sequential action execution, and
// threshold gates over tool reports.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

const (
	taskNameMissingMessageConstant     = "task name must be provided"
	actionFormMissingMessageConstant   = "task %q action %d must declare a command, a script, or an upload"
	actionFormConflictMessageConstant  = "task %q action %d must declare exactly one of command, script, or upload"
	actionCommandEmptyMessageConstant  = "task %q action %d command must not be empty"
	gateParserMissingMessageConstant   = "task %q action %d gate must name a parser"
	gateMinimumNegativeMessageConstant = "task %q action %d gate minimum must not be negative"
	definitionValidationErrorConstant  = "invalid task definition"
)

// ErrInvalidTaskDefinition marks definitions rejected by validation.
var ErrInvalidTaskDefinition = errors.New(definitionValidationErrorConstant)

// TaskDefinition declares a named task with ordered prerequisites and actions.
// Every task is phony: reaching it always runs its actions.
type TaskDefinition struct {
	Name          string
	Description   string
	Prerequisites []string
	Actions       []ActionDefinition
}

// ActionDefinition declares a single executable step of a task. Exactly one
// of Command, Script, or Upload is set. Command runs the argv directly;
// Script runs through the POSIX shell; Upload hands the artifact pattern to
// the configured uploader.
type ActionDefinition struct {
	Command []string
	Script  string
	Upload  string
	Gate    *GateDefinition
}

// GateDefinition attaches a threshold check to an action's captured output.
type GateDefinition struct {
	Parser  string
	Minimum float64
	Subject string
}

// Validate reports whether the definition is structurally sound.
func (definition TaskDefinition) Validate() error {
	if len(strings.TrimSpace(definition.Name)) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTaskDefinition, taskNameMissingMessageConstant)
	}

	for actionIndex, action := range definition.Actions {
		if validationError := action.validate(definition.Name, actionIndex); validationError != nil {
			return validationError
		}
	}

	return nil
}

func (action ActionDefinition) validate(taskName string, actionIndex int) error {
	declaredForms := 0
	if len(action.Command) > 0 {
		declaredForms++
	}
	if len(strings.TrimSpace(action.Script)) > 0 {
		declaredForms++
	}
	if len(strings.TrimSpace(action.Upload)) > 0 {
		declaredForms++
	}

	switch declaredForms {
	case 0:
		return fmt.Errorf("%w: %s", ErrInvalidTaskDefinition, fmt.Sprintf(actionFormMissingMessageConstant, taskName, actionIndex))
	case 1:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidTaskDefinition, fmt.Sprintf(actionFormConflictMessageConstant, taskName, actionIndex))
	}

	if len(action.Command) > 0 && len(strings.TrimSpace(action.Command[0])) == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTaskDefinition, fmt.Sprintf(actionCommandEmptyMessageConstant, taskName, actionIndex))
	}

	if action.Gate != nil {
		if len(strings.TrimSpace(action.Gate.Parser)) == 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTaskDefinition, fmt.Sprintf(gateParserMissingMessageConstant, taskName, actionIndex))
		}
		if action.Gate.Minimum < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTaskDefinition, fmt.Sprintf(gateMinimumNegativeMessageConstant, taskName, actionIndex))
		}
	}

	return nil
}

// CommandLine renders the action for operator-facing output.
func (action ActionDefinition) CommandLine() string {
	if len(action.Command) > 0 {
		return strings.Join(action.Command, " ")
	}
	if len(strings.TrimSpace(action.Script)) > 0 {
		return action.Script
	}
	if len(strings.TrimSpace(action.Upload)) > 0 {
		return fmt.Sprintf("upload %s", action.Upload)
	}
	return ""
}
