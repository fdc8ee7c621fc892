package pipeline_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/relpipe/internal/pipeline"
)

const (
	testCoverageSubjectConstant  = "coverage"
	testCustomParserNameConstant = "lines-covered"
)

const testCoverageReportFixtureConstant = `Name                 Stmts   Miss  Cover
----------------------------------------
relpipe/__init__.py      4      0   100%
relpipe/core.py        120     25    79%
----------------------------------------
TOTAL                  124     25    79%
`

type fixedMeasurementParser struct {
	measurement pipeline.Measurement
	parseError  error
}

func (parser fixedMeasurementParser) ParseMeasurement(string) (pipeline.Measurement, error) {
	return parser.measurement, parser.parseError
}

func TestCoverageTotalParserExtractsTotalRow(testInstance *testing.T) {
	testCases := []struct {
		name               string
		reportText         string
		expectedValue      float64
		expectedSourceLine string
		expectedReason     string
	}{
		{
			name:               "tabular_report_with_total_row",
			reportText:         testCoverageReportFixtureConstant,
			expectedValue:      79,
			expectedSourceLine: "TOTAL                  124     25    79%",
		},
		{
			name:               "fractional_total_percentage",
			reportText:         "TOTAL 10 1 92.5%",
			expectedValue:      92.5,
			expectedSourceLine: "TOTAL 10 1 92.5%",
		},
		{
			name:           "missing_total_row",
			reportText:     "relpipe/core.py 120 25 79%",
			expectedReason: "no TOTAL row found",
		},
		{
			name:           "empty_report",
			reportText:     "\n\n",
			expectedReason: "report is empty",
		},
		{
			name:           "non_numeric_total_field",
			reportText:     "TOTAL 124 n/a",
			expectedReason: `value "n/a" is not numeric`,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			registry := pipeline.NewParserRegistry()
			parser, lookupError := registry.Lookup(pipeline.CoverageTotalParserName)
			require.NoError(testInstance, lookupError)

			measurement, parseError := parser.ParseMeasurement(testCase.reportText)
			if len(testCase.expectedReason) > 0 {
				require.Error(testInstance, parseError)

				var measurementError pipeline.MeasurementParseError
				require.ErrorAs(testInstance, parseError, &measurementError)
				require.Equal(testInstance, testCase.expectedReason, measurementError.Reason)
				return
			}

			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedValue, measurement.Value)
			require.Equal(testInstance, testCase.expectedSourceLine, measurement.SourceLine)
		})
	}
}

func TestPercentLastParserReadsFinalSummaryLine(testInstance *testing.T) {
	testCases := []struct {
		name           string
		reportText     string
		expectedValue  float64
		expectedReason string
	}{
		{
			name:          "single_summary_line",
			reportText:    "Your code has been rated at 9.21/10 covering 87%",
			expectedValue: 87,
		},
		{
			name:          "last_percentage_token_wins",
			reportText:    "branch 45% line 91%",
			expectedValue: 91,
		},
		{
			name:          "trailing_blank_lines_ignored",
			reportText:    "passed 96%\n\n\n",
			expectedValue: 96,
		},
		{
			name:           "no_percentage_token",
			reportText:     "all checks passed",
			expectedReason: "no percentage token found",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			registry := pipeline.NewParserRegistry()
			parser, lookupError := registry.Lookup(pipeline.PercentLastParserName)
			require.NoError(testInstance, lookupError)

			measurement, parseError := parser.ParseMeasurement(testCase.reportText)
			if len(testCase.expectedReason) > 0 {
				require.Error(testInstance, parseError)

				var measurementError pipeline.MeasurementParseError
				require.ErrorAs(testInstance, parseError, &measurementError)
				require.Equal(testInstance, testCase.expectedReason, measurementError.Reason)
				return
			}

			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedValue, measurement.Value)
		})
	}
}

func TestGateEvaluatorComparesAgainstMinimum(testInstance *testing.T) {
	testCases := []struct {
		name          string
		reportText    string
		minimum       float64
		expectedValue float64
		expectMet     bool
	}{
		{
			name:          "value_below_minimum_fails",
			reportText:    testCoverageReportFixtureConstant,
			minimum:       80,
			expectedValue: 79,
			expectMet:     false,
		},
		{
			name:          "value_equal_to_minimum_passes",
			reportText:    "TOTAL 124 25 80%",
			minimum:       80,
			expectedValue: 80,
			expectMet:     true,
		},
		{
			name:          "value_above_minimum_passes",
			reportText:    "TOTAL 124 2 98%",
			minimum:       80,
			expectedValue: 98,
			expectMet:     true,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			evaluator := pipeline.NewGateEvaluator(nil)
			gateDefinition := pipeline.GateDefinition{
				Parser:  pipeline.CoverageTotalParserName,
				Minimum: testCase.minimum,
				Subject: testCoverageSubjectConstant,
			}

			result, evaluationError := evaluator.Evaluate(gateDefinition, testCase.reportText)
			require.Equal(testInstance, testCase.expectedValue, result.Value)
			require.Equal(testInstance, testCase.minimum, result.Minimum)
			require.Equal(testInstance, testCoverageSubjectConstant, result.Subject)
			require.Equal(testInstance, testCase.expectMet, result.Met)

			if testCase.expectMet {
				require.NoError(testInstance, evaluationError)
				return
			}

			require.Error(testInstance, evaluationError)

			var thresholdError pipeline.ThresholdNotMetError
			require.ErrorAs(testInstance, evaluationError, &thresholdError)
			require.Equal(testInstance, testCase.expectedValue, thresholdError.Value)
			require.Equal(testInstance, testCase.minimum, thresholdError.Minimum)
			require.Contains(testInstance, evaluationError.Error(), "below the required minimum")
		})
	}
}

func TestGateEvaluatorRejectsUnknownParser(testInstance *testing.T) {
	evaluator := pipeline.NewGateEvaluator(nil)

	_, evaluationError := evaluator.Evaluate(pipeline.GateDefinition{Parser: "nonexistent", Minimum: 1}, "TOTAL 1 0 100%")
	require.Error(testInstance, evaluationError)

	var unknownError pipeline.UnknownParserError
	require.ErrorAs(testInstance, evaluationError, &unknownError)
	require.Equal(testInstance, "nonexistent", unknownError.ParserName)
}

func TestParserRegistryAcceptsCustomParsers(testInstance *testing.T) {
	registry := pipeline.NewParserRegistry()
	registry.Register(testCustomParserNameConstant, fixedMeasurementParser{
		measurement: pipeline.Measurement{Value: 1234, SourceLine: "lines covered: 1234"},
	})

	evaluator := pipeline.NewGateEvaluator(registry)
	result, evaluationError := evaluator.Evaluate(pipeline.GateDefinition{
		Parser:  testCustomParserNameConstant,
		Minimum: 1000,
		Subject: "covered lines",
	}, "lines covered: 1234")

	require.NoError(testInstance, evaluationError)
	require.True(testInstance, result.Met)
	require.Equal(testInstance, float64(1234), result.Value)
	require.Equal(testInstance, "lines covered: 1234", result.SourceLine)
}

func TestParserRegistryRegisterReplacesExistingBinding(testInstance *testing.T) {
	registry := pipeline.NewParserRegistry()
	registry.Register(pipeline.PercentLastParserName, fixedMeasurementParser{
		measurement: pipeline.Measurement{Value: 55},
	})

	parser, lookupError := registry.Lookup(pipeline.PercentLastParserName)
	require.NoError(testInstance, lookupError)

	measurement, parseError := parser.ParseMeasurement("irrelevant")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, float64(55), measurement.Value)
}
