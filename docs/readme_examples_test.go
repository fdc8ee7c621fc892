package docs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/relpipe/cmd/cli"
	"github.com/tyemirov/relpipe/internal/pipeline"
)

const (
	documentationFileNameConstant     = "README.md"
	yamlFenceStartConstant            = "```yaml"
	yamlFenceEndConstant              = "```"
	pipelineHeaderMarkerConstant      = "# pipeline.yaml"
	configurationHeaderMarkerConstant = "# config.yaml"
	parentDirectoryReferenceConstant  = ".."
	yamlConfigurationTypeConstant     = "yaml"
	missingHeaderMessageConstant      = "README example missing header marker %q"
	missingStartFenceMessageConstant  = "README example missing yaml fence start"
	missingEndFenceMessageConstant    = "README example missing yaml fence end"
	exampleInterpreterValueConstant   = "python3"
	examplePackageValueConstant       = "myproject"
	exampleRegistryKeyConstant        = "registry"
	exampleRegistryValueConstant      = "https://upload.pypi.org/legacy/"
	exampleDefaultTaskValueConstant   = "test"
	exampleReleaseTaskNameConstant    = "release"
)

var expectedPipelineTaskNames = []string{"clean", "test", "coverage", "release"}

func readDocumentationContent(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	documentationPath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, documentationFileNameConstant)
	contentBytes, readError := os.ReadFile(documentationPath)
	require.NoError(testInstance, readError)

	return string(contentBytes)
}

func extractYamlSnippet(testInstance *testing.T, contentText string, headerMarker string) string {
	testInstance.Helper()

	headerIndex := strings.Index(contentText, headerMarker)
	require.NotEqualf(testInstance, -1, headerIndex, missingHeaderMessageConstant, headerMarker)

	fenceStartIndex := strings.LastIndex(contentText[:headerIndex], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	remainingText := contentText[headerIndex:]
	fenceEndRelativeIndex := strings.Index(remainingText, yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := headerIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}

func TestReadmePipelineExampleParses(testInstance *testing.T) {
	contentText := readDocumentationContent(testInstance)
	snippetContent := extractYamlSnippet(testInstance, contentText, pipelineHeaderMarkerConstant)

	templateVariables := map[string]string{
		"interpreter": exampleInterpreterValueConstant,
		"package":     examplePackageValueConstant,
	}

	registry, parseError := pipeline.ParsePipeline([]byte(snippetContent), templateVariables)
	require.NoError(testInstance, parseError)
	require.NoError(testInstance, registry.ValidateAll())
	require.Equal(testInstance, expectedPipelineTaskNames, registry.TaskNames())

	releaseTask, lookupError := registry.Lookup(exampleReleaseTaskNameConstant)
	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, []string{"clean", "test", "coverage"}, releaseTask.Prerequisites)
	require.Len(testInstance, releaseTask.Actions, 2)
}

func TestReadmeConfigurationExampleDecodes(testInstance *testing.T) {
	contentText := readDocumentationContent(testInstance)
	snippetContent := extractYamlSnippet(testInstance, contentText, configurationHeaderMarkerConstant)

	viperInstance := viper.New()
	viperInstance.SetConfigType(yamlConfigurationTypeConstant)
	require.NoError(testInstance, viperInstance.ReadConfig(bytes.NewReader([]byte(snippetContent))))

	var configuration cli.ApplicationConfiguration
	require.NoError(testInstance, viperInstance.Unmarshal(&configuration))

	require.Equal(testInstance, exampleDefaultTaskValueConstant, configuration.Run.DefaultTask)
	require.Equal(testInstance, exampleInterpreterValueConstant, configuration.Run.Interpreter)
	require.Equal(testInstance, examplePackageValueConstant, configuration.Run.Package)
	require.Equal(testInstance, []string{"twine", "upload"}, configuration.Run.UploadCommand)
	require.Equal(testInstance, exampleRegistryValueConstant, configuration.Run.Variables[exampleRegistryKeyConstant])
	require.False(testInstance, configuration.Common.DryRun)
}
