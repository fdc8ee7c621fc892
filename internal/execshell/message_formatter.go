package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	successMessageTemplateConstant          = "Completed %s"
	failureMessageTemplateConstant          = "%s failed with exit code %d"
	failureDetailTemplateConstant           = "%s: %s"
	executionFailureMessageTemplateConstant = "%s failed: %v"
	commandDescriptionTemplateConstant      = "%s (in %s)"
	currentDirectoryPlaceholderConstant     = "."
)

// CommandMessageFormatter renders one-line human-readable command lifecycle messages.
type CommandMessageFormatter struct{}

// BuildStartedMessage renders the message logged before a command runs.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.describeCommand(command))
}

// BuildSuccessMessage renders the message logged after a command succeeds.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(successMessageTemplateConstant, formatter.describeCommand(command))
}

// BuildFailureMessage renders the message logged when a command exits non-zero.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	failureMessage := fmt.Sprintf(failureMessageTemplateConstant, formatter.describeCommand(command), result.ExitCode)
	failureDetail := firstNonEmptyLine(result.StandardError)
	if len(failureDetail) == 0 {
		failureDetail = firstNonEmptyLine(result.StandardOutput)
	}
	if len(failureDetail) > 0 {
		failureMessage = fmt.Sprintf(failureDetailTemplateConstant, failureMessage, failureDetail)
	}
	return failureMessage
}

// BuildExecutionFailureMessage renders the message logged when the runner itself fails.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, cause error) string {
	return fmt.Sprintf(executionFailureMessageTemplateConstant, formatter.describeCommand(command), cause)
}

func (formatter CommandMessageFormatter) describeCommand(command ShellCommand) string {
	commandLine := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLine = fmt.Sprintf("%s %s", commandLine, strings.Join(command.Details.Arguments, " "))
	}
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		workingDirectory = currentDirectoryPlaceholderConstant
	}
	return fmt.Sprintf(commandDescriptionTemplateConstant, commandLine, workingDirectory)
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if len(trimmedLine) > 0 {
			return trimmedLine
		}
	}
	return ""
}
