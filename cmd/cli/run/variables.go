package run

import (
	"fmt"
	"os"
	"strings"
)

const (
	interpreterVariableNameConstant         = "interpreter"
	packageVariableNameConstant             = "package"
	interpreterEnvironmentVariableConstant  = "RELPIPE_PYTHON"
	variableAssignmentSeparatorConstant     = "="
	variableAssignmentFormatMessageConstant = "pipeline variables must be in key=value format: %s"
	variableKeyEmptyMessageConstant         = "pipeline variable key cannot be empty (%s)"
)

// resolveVariables layers template variables in increasing precedence:
// configured interpreter and package names, the configuration variable map,
// the interpreter environment override, and finally --var assignments.
func resolveVariables(configuration CommandConfiguration, assignments []string) (map[string]string, error) {
	variables := map[string]string{
		interpreterVariableNameConstant: configuration.Interpreter,
		packageVariableNameConstant:     configuration.PackageName,
	}

	for variableKey, variableValue := range configuration.Variables {
		normalizedKey := strings.TrimSpace(variableKey)
		if len(normalizedKey) == 0 {
			continue
		}
		variables[normalizedKey] = variableValue
	}

	if interpreterOverride := strings.TrimSpace(os.Getenv(interpreterEnvironmentVariableConstant)); len(interpreterOverride) > 0 {
		variables[interpreterVariableNameConstant] = interpreterOverride
	}

	parsedAssignments, parseError := parseVariableAssignments(assignments)
	if parseError != nil {
		return nil, parseError
	}
	for variableKey, variableValue := range parsedAssignments {
		variables[variableKey] = variableValue
	}

	return variables, nil
}

func parseVariableAssignments(assignments []string) (map[string]string, error) {
	if len(assignments) == 0 {
		return nil, nil
	}

	parsed := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		trimmedAssignment := strings.TrimSpace(assignment)
		if len(trimmedAssignment) == 0 {
			continue
		}

		assignmentParts := strings.SplitN(trimmedAssignment, variableAssignmentSeparatorConstant, 2)
		if len(assignmentParts) != 2 {
			return nil, fmt.Errorf(variableAssignmentFormatMessageConstant, assignment)
		}

		variableKey := strings.TrimSpace(assignmentParts[0])
		if len(variableKey) == 0 {
			return nil, fmt.Errorf(variableKeyEmptyMessageConstant, assignment)
		}

		parsed[variableKey] = assignmentParts[1]
	}

	if len(parsed) == 0 {
		return nil, nil
	}

	return parsed, nil
}
