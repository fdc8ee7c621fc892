package taskrunner

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/relpipe/internal/execshell"
	"github.com/tyemirov/relpipe/internal/pipeline"
)

type stubUploader struct{}

func (stubUploader) Upload(context.Context, string, execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func TestBuildDependenciesResolvesDefaults(t *testing.T) {
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}

	result, err := BuildDependencies(
		DependenciesConfig{LoggerProvider: func() *zap.Logger { return zap.NewNop() }},
		DependenciesOptions{Output: outputBuffer, Errors: errorBuffer},
	)
	require.NoError(t, err)
	require.NotNil(t, result.ShellExecutor)
	require.NotNil(t, result.Uploader)
	require.NotNil(t, result.Pipeline.Logger)
	require.NotNil(t, result.Pipeline.GateEvaluator)
	require.Equal(t, outputBuffer, result.Pipeline.Output)
	require.Equal(t, errorBuffer, result.Pipeline.Errors)
}

func TestBuildDependenciesRequiresOutputWriter(t *testing.T) {
	_, err := BuildDependencies(DependenciesConfig{}, DependenciesOptions{})
	require.ErrorIs(t, err, errOutputWriterMissing)
}

func TestBuildDependenciesRequiresErrorWriter(t *testing.T) {
	_, err := BuildDependencies(DependenciesConfig{}, DependenciesOptions{Output: &bytes.Buffer{}})
	require.ErrorIs(t, err, errErrorWriterMissing)
}

func TestBuildDependenciesResolvesCommandWriters(t *testing.T) {
	outputBuffer := &bytes.Buffer{}
	errorBuffer := &bytes.Buffer{}

	command := &cobra.Command{}
	command.SetOut(outputBuffer)
	command.SetErr(errorBuffer)

	result, err := BuildDependencies(DependenciesConfig{}, DependenciesOptions{Command: command})
	require.NoError(t, err)
	require.Equal(t, outputBuffer, result.Pipeline.Output)
	require.Equal(t, errorBuffer, result.Pipeline.Errors)
}

func TestBuildDependenciesHonorsProvidedUploader(t *testing.T) {
	uploader := stubUploader{}

	result, err := BuildDependencies(
		DependenciesConfig{Uploader: uploader},
		DependenciesOptions{Output: &bytes.Buffer{}, Errors: &bytes.Buffer{}},
	)
	require.NoError(t, err)
	require.Equal(t, uploader, result.Uploader)
}

func TestBuildDependenciesHonorsCustomParserRegistry(t *testing.T) {
	parserRegistry := pipeline.NewParserRegistry()

	result, err := BuildDependencies(
		DependenciesConfig{ParserRegistry: parserRegistry},
		DependenciesOptions{Output: &bytes.Buffer{}, Errors: &bytes.Buffer{}},
	)
	require.NoError(t, err)
	require.NotNil(t, result.Pipeline.GateEvaluator)
}
