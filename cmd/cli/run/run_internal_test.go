package run

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/relpipe/internal/pipeline"
)

const internalTestSubtestNameTemplateConstant = "%d_%s"

const internalTestPipelineDocumentConstant = `tasks:
  - task:
      name: build
      actions:
        - script: "echo {{ .interpreter }}"
`

const internalTestAlternatePipelineDocumentConstant = `tasks:
  - task:
      name: alternate
      actions:
        - script: "echo alternate"
`

func writeDocument(testInstance *testing.T, directoryPath string, document string) string {
	testInstance.Helper()

	documentPath := filepath.Join(directoryPath, defaultPipelineFileNameConstant)
	require.NoError(testInstance, os.WriteFile(documentPath, []byte(document), 0o600))
	return documentPath
}

func TestParseVariableAssignments(testInstance *testing.T) {
	testCases := []struct {
		name        string
		assignments []string
		expected    map[string]string
		expectError bool
	}{
		{
			name:        "nil_for_empty_input",
			assignments: nil,
			expected:    nil,
		},
		{
			name:        "parses_assignments",
			assignments: []string{"interpreter=python3.12", "package=demo"},
			expected:    map[string]string{"interpreter": "python3.12", "package": "demo"},
		},
		{
			name:        "preserves_separator_in_value",
			assignments: []string{"flags=-m=strict"},
			expected:    map[string]string{"flags": "-m=strict"},
		},
		{
			name:        "skips_blank_entries",
			assignments: []string{"   "},
			expected:    nil,
		},
		{
			name:        "rejects_missing_separator",
			assignments: []string{"interpreter"},
			expectError: true,
		},
		{
			name:        "rejects_empty_key",
			assignments: []string{"=python3"},
			expectError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(internalTestSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			parsed, parseError := parseVariableAssignments(testCase.assignments)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, parsed)
		})
	}
}

func TestResolveVariablesPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		environmentValue    string
		configuredVariables map[string]string
		assignments         []string
		expectedInterpreter string
	}{
		{
			name:                "configured_interpreter_by_default",
			expectedInterpreter: "python3",
		},
		{
			name:                "configuration_variables_override",
			configuredVariables: map[string]string{"interpreter": "pypy3"},
			expectedInterpreter: "pypy3",
		},
		{
			name:                "environment_overrides_configuration",
			environmentValue:    "python3.11",
			configuredVariables: map[string]string{"interpreter": "pypy3"},
			expectedInterpreter: "python3.11",
		},
		{
			name:                "assignments_override_environment",
			environmentValue:    "python3.11",
			assignments:         []string{"interpreter=python3.12"},
			expectedInterpreter: "python3.12",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(internalTestSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			testInstance.Setenv(interpreterEnvironmentVariableConstant, testCase.environmentValue)

			configuration := DefaultCommandConfiguration()
			configuration.Variables = testCase.configuredVariables

			variables, variablesError := resolveVariables(configuration, testCase.assignments)
			require.NoError(testInstance, variablesError)
			require.Equal(testInstance, testCase.expectedInterpreter, variables[interpreterVariableNameConstant])
			require.Equal(testInstance, defaultPackageNameConstant, variables[packageVariableNameConstant])
		})
	}
}

func TestResolveVariablesKeepsConfiguredEntries(testInstance *testing.T) {
	testInstance.Setenv(interpreterEnvironmentVariableConstant, "")

	configuration := DefaultCommandConfiguration()
	configuration.Variables = map[string]string{" registry ": "pypi.example.org", "": "ignored"}

	variables, variablesError := resolveVariables(configuration, nil)
	require.NoError(testInstance, variablesError)
	require.Equal(testInstance, "pypi.example.org", variables["registry"])
	require.NotContains(testInstance, variables, "")
}

func TestRequestedTasks(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:     "falls_back_to_default",
			expected: []string{defaultTaskNameConstant},
		},
		{
			name:      "trims_and_preserves_order",
			arguments: []string{" build ", "verify"},
			expected:  []string{"build", "verify"},
		},
		{
			name:      "blank_arguments_fall_back",
			arguments: []string{"   "},
			expected:  []string{defaultTaskNameConstant},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(internalTestSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, requestedTasks(testCase.arguments, defaultTaskNameConstant))
		})
	}
}

func TestCommandConfigurationSanitizeFillsDefaults(testInstance *testing.T) {
	sanitized := CommandConfiguration{
		DefaultTask:  "  ",
		PipelineFile: " ./pipeline.yaml ",
		Interpreter:  "",
		PackageName:  "\t",
	}.Sanitize()

	require.Equal(testInstance, defaultTaskNameConstant, sanitized.DefaultTask)
	require.Equal(testInstance, "./pipeline.yaml", sanitized.PipelineFile)
	require.Equal(testInstance, defaultInterpreterConstant, sanitized.Interpreter)
	require.Equal(testInstance, defaultPackageNameConstant, sanitized.PackageName)
}

func TestResolveConfigurationWithoutProvider(testInstance *testing.T) {
	configuration := resolveConfiguration(nil)
	require.Equal(testInstance, DefaultCommandConfiguration(), configuration)
}

func TestResolveRegistrySourcePrecedence(testInstance *testing.T) {
	testInstance.Setenv(interpreterEnvironmentVariableConstant, "")

	configuredPath := writeDocument(testInstance, testInstance.TempDir(), internalTestPipelineDocumentConstant)
	explicitPath := writeDocument(testInstance, testInstance.TempDir(), internalTestAlternatePipelineDocumentConstant)

	flaggedCommand := &cobra.Command{Use: "run"}
	bindPipelineFlags(flaggedCommand)
	require.NoError(testInstance, flaggedCommand.ParseFlags([]string{"--pipeline", explicitPath}))

	configuration := DefaultCommandConfiguration()
	configuration.PipelineFile = configuredPath

	explicitRegistry, explicitError := resolveRegistry(flaggedCommand, configuration, nil)
	require.NoError(testInstance, explicitError)
	require.Equal(testInstance, []string{"alternate"}, explicitRegistry.TaskNames())

	configuredRegistry, configuredError := resolveRegistry(nil, configuration, nil)
	require.NoError(testInstance, configuredError)
	require.Equal(testInstance, []string{"build"}, configuredRegistry.TaskNames())
}

func TestResolveRegistryFindsWorkingDirectoryPipeline(testInstance *testing.T) {
	testInstance.Setenv(interpreterEnvironmentVariableConstant, "")

	workingDirectory := testInstance.TempDir()
	writeDocument(testInstance, workingDirectory, internalTestPipelineDocumentConstant)

	originalDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)
	require.NoError(testInstance, os.Chdir(workingDirectory))
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Chdir(originalDirectory))
	})

	registry, registryError := resolveRegistry(nil, DefaultCommandConfiguration(), nil)
	require.NoError(testInstance, registryError)
	require.Equal(testInstance, []string{"build"}, registry.TaskNames())
}

func TestResolveRegistryFallsBackToEmbeddedCatalog(testInstance *testing.T) {
	testInstance.Setenv(interpreterEnvironmentVariableConstant, "")

	originalDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)
	require.NoError(testInstance, os.Chdir(testInstance.TempDir()))
	testInstance.Cleanup(func() {
		require.NoError(testInstance, os.Chdir(originalDirectory))
	})

	registry, registryError := resolveRegistry(nil, DefaultCommandConfiguration(), nil)
	require.NoError(testInstance, registryError)
	require.Contains(testInstance, registry.TaskNames(), pipeline.ReleasePresetName)
}
