package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tyemirov/relpipe/internal/execshell"
)

const (
	defaultUploadToolNameConstant        = "twine"
	defaultUploadSubcommandConstant      = "upload"
	uploaderNotConfiguredMessageConstant = "artifact uploader not configured"
	uploadPatternMissingMessageConstant  = "artifact pattern must be provided"
	uploadCommandLineTemplateConstant    = "%s %s"
)

var (
	// ErrUploaderNotConfigured indicates an upload action ran without an uploader dependency.
	ErrUploaderNotConfigured = errors.New(uploaderNotConfiguredMessageConstant)
	// ErrUploadPatternMissing indicates an upload action without an artifact pattern.
	ErrUploadPatternMissing = errors.New(uploadPatternMissingMessageConstant)
)

// Uploader publishes built artifacts matching the provided pattern.
type Uploader interface {
	Upload(executionContext context.Context, artifactPattern string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandUploader publishes artifacts by invoking the configured upload tool
// through the shell so artifact patterns expand.
type CommandUploader struct {
	shellExecutor *execshell.ShellExecutor
	uploadCommand []string
}

// NewCommandUploader constructs a CommandUploader. An empty command selects
// the default upload tool.
func NewCommandUploader(shellExecutor *execshell.ShellExecutor, uploadCommand []string) *CommandUploader {
	if len(uploadCommand) == 0 {
		uploadCommand = []string{defaultUploadToolNameConstant, defaultUploadSubcommandConstant}
	}
	return &CommandUploader{shellExecutor: shellExecutor, uploadCommand: append([]string(nil), uploadCommand...)}
}

// Upload runs the upload tool against the artifact pattern.
func (uploader *CommandUploader) Upload(executionContext context.Context, artifactPattern string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	trimmedPattern := strings.TrimSpace(artifactPattern)
	if len(trimmedPattern) == 0 {
		return execshell.ExecutionResult{}, ErrUploadPatternMissing
	}

	uploadScript := fmt.Sprintf(uploadCommandLineTemplateConstant, strings.Join(uploader.uploadCommand, " "), trimmedPattern)
	return uploader.shellExecutor.ExecuteScript(executionContext, uploadScript, details)
}
