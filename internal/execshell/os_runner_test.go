package execshell_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/relpipe/internal/execshell"
)

const (
	testRunnerSuccessCaseNameConstant       = "zero_exit"
	testRunnerNonZeroExitCaseNameConstant   = "non_zero_exit"
	testRunnerMissingBinaryCaseNameConstant = "missing_binary"
	testRunnerSubtestNameTemplateConstant   = "%d_%s"
	testEchoScriptConstant                  = "echo stdout-line; echo stderr-line 1>&2"
	testExitScriptConstant                  = "echo broken 1>&2; exit 3"
	testMissingBinaryNameConstant           = "relpipe-test-binary-that-does-not-exist"
	testEnvironmentProbeScriptConstant      = "printf '%s' \"$RELPIPE_RUNNER_PROBE\""
	testEnvironmentProbeKeyConstant         = "RELPIPE_RUNNER_PROBE"
	testEnvironmentProbeValueConstant       = "probe-value"
	testSleepScriptConstant                 = "sleep 5"
)

func TestOSCommandRunnerRun(testInstance *testing.T) {
	testCases := []struct {
		name                   string
		command                execshell.ShellCommand
		expectError            bool
		expectedExitCode       int
		expectedStandardOutput string
		expectedStandardError  string
	}{
		{
			name: testRunnerSuccessCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandShell,
				Details: execshell.CommandDetails{Arguments: []string{"-c", testEchoScriptConstant}},
			},
			expectedExitCode:       0,
			expectedStandardOutput: "stdout-line\n",
			expectedStandardError:  "stderr-line\n",
		},
		{
			name: testRunnerNonZeroExitCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandShell,
				Details: execshell.CommandDetails{Arguments: []string{"-c", testExitScriptConstant}},
			},
			expectedExitCode:      3,
			expectedStandardError: "broken\n",
		},
		{
			name: testRunnerMissingBinaryCaseNameConstant,
			command: execshell.ShellCommand{
				Name: execshell.CommandName(testMissingBinaryNameConstant),
			},
			expectError: true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testRunnerSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			commandRunner := execshell.NewOSCommandRunner()

			executionResult, runError := commandRunner.Run(context.Background(), testCase.command)

			if testCase.expectError {
				require.Error(testInstance, runError)
				return
			}

			require.NoError(testInstance, runError)
			require.Equal(testInstance, testCase.expectedExitCode, executionResult.ExitCode)
			require.Equal(testInstance, testCase.expectedStandardOutput, executionResult.StandardOutput)
			require.Equal(testInstance, testCase.expectedStandardError, executionResult.StandardError)
		})
	}
}

func TestOSCommandRunnerAppliesEnvironmentOverrides(testInstance *testing.T) {
	commandRunner := execshell.NewOSCommandRunner()

	executionResult, runError := commandRunner.Run(context.Background(), execshell.ShellCommand{
		Name: execshell.CommandShell,
		Details: execshell.CommandDetails{
			Arguments:            []string{"-c", testEnvironmentProbeScriptConstant},
			EnvironmentVariables: map[string]string{testEnvironmentProbeKeyConstant: testEnvironmentProbeValueConstant},
		},
	})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 0, executionResult.ExitCode)
	require.Equal(testInstance, testEnvironmentProbeValueConstant, executionResult.StandardOutput)
}

func TestOSCommandRunnerKillsChildOnContextCancellation(testInstance *testing.T) {
	commandRunner := execshell.NewOSCommandRunner()

	executionContext, cancelFunction := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelFunction()

	startTime := time.Now()
	_, runError := commandRunner.Run(executionContext, execshell.ShellCommand{
		Name:    execshell.CommandShell,
		Details: execshell.CommandDetails{Arguments: []string{"-c", testSleepScriptConstant}},
	})

	require.Error(testInstance, runError)
	require.ErrorIs(testInstance, runError, context.DeadlineExceeded)
	require.Less(testInstance, time.Since(startTime), 3*time.Second)
}
