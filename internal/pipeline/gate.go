package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CoverageTotalParserName selects the parser for tabular coverage reports
	// carrying a TOTAL summary row.
	CoverageTotalParserName = "coverage-total"
	// PercentLastParserName selects the parser for tools printing a single
	// summary line ending in a percentage.
	PercentLastParserName = "percent-last"

	coverageTotalRowLabelConstant               = "TOTAL"
	percentSuffixConstant                       = "%"
	unknownParserErrorTemplateConstant          = "unknown report parser %q"
	measurementParseErrorTemplateConstant       = "parser %q could not extract a measurement: %s"
	thresholdNotMetErrorTemplateConstant        = "%s %.4g is below the required minimum %.4g"
	emptyReportReasonConstant                   = "report is empty"
	missingTotalRowReasonConstant               = "no TOTAL row found"
	missingPercentTokenReasonConstant           = "no percentage token found"
	unparsableMeasurementReasonTemplateConstant = "value %q is not numeric"
)

// Measurement is a numeric value extracted from a tool report.
type Measurement struct {
	Value      float64
	SourceLine string
}

// ReportParser extracts a measurement from the captured output of a tool.
type ReportParser interface {
	ParseMeasurement(reportText string) (Measurement, error)
}

// ThresholdResult records the outcome of a gate evaluation.
type ThresholdResult struct {
	Subject    string
	Value      float64
	Minimum    float64
	Met        bool
	SourceLine string
}

// UnknownParserError reports a gate referencing an unregistered parser.
type UnknownParserError struct {
	ParserName string
}

// Error describes the unknown parser reference.
func (unknownError UnknownParserError) Error() string {
	return fmt.Sprintf(unknownParserErrorTemplateConstant, unknownError.ParserName)
}

// MeasurementParseError reports a report the parser could not read.
type MeasurementParseError struct {
	ParserName string
	Reason     string
}

// Error describes the parse failure.
func (parseError MeasurementParseError) Error() string {
	return fmt.Sprintf(measurementParseErrorTemplateConstant, parseError.ParserName, parseError.Reason)
}

// ThresholdNotMetError reports a measurement below the configured minimum.
type ThresholdNotMetError struct {
	Subject string
	Value   float64
	Minimum float64
}

// Error describes the missed threshold.
func (thresholdError ThresholdNotMetError) Error() string {
	return fmt.Sprintf(thresholdNotMetErrorTemplateConstant, thresholdError.Subject, thresholdError.Value, thresholdError.Minimum)
}

// ParserRegistry maps parser names to report parsers.
type ParserRegistry struct {
	parsersByName map[string]ReportParser
}

// NewParserRegistry constructs a registry preloaded with the built-in parsers.
func NewParserRegistry() *ParserRegistry {
	registry := &ParserRegistry{parsersByName: make(map[string]ReportParser)}
	registry.Register(CoverageTotalParserName, coverageTotalParser{})
	registry.Register(PercentLastParserName, percentLastParser{})
	return registry
}

// Register binds the parser to the provided name, replacing any existing binding.
func (registry *ParserRegistry) Register(parserName string, parser ReportParser) {
	registry.parsersByName[strings.TrimSpace(parserName)] = parser
}

// Lookup returns the parser registered under the provided name.
func (registry *ParserRegistry) Lookup(parserName string) (ReportParser, error) {
	parser, registered := registry.parsersByName[strings.TrimSpace(parserName)]
	if !registered {
		return nil, UnknownParserError{ParserName: strings.TrimSpace(parserName)}
	}
	return parser, nil
}

// GateEvaluator evaluates threshold gates against captured tool reports.
type GateEvaluator struct {
	parserRegistry *ParserRegistry
}

// NewGateEvaluator constructs a GateEvaluator backed by the provided registry.
func NewGateEvaluator(parserRegistry *ParserRegistry) *GateEvaluator {
	if parserRegistry == nil {
		parserRegistry = NewParserRegistry()
	}
	return &GateEvaluator{parserRegistry: parserRegistry}
}

// Evaluate extracts the measurement named by the gate and compares it against
// the configured minimum. A measurement equal to the minimum passes.
func (evaluator *GateEvaluator) Evaluate(definition GateDefinition, reportText string) (ThresholdResult, error) {
	parser, lookupError := evaluator.parserRegistry.Lookup(definition.Parser)
	if lookupError != nil {
		return ThresholdResult{}, lookupError
	}

	measurement, parseError := parser.ParseMeasurement(reportText)
	if parseError != nil {
		return ThresholdResult{}, parseError
	}

	result := ThresholdResult{
		Subject:    definition.Subject,
		Value:      measurement.Value,
		Minimum:    definition.Minimum,
		Met:        measurement.Value >= definition.Minimum,
		SourceLine: measurement.SourceLine,
	}

	if !result.Met {
		return result, ThresholdNotMetError{
			Subject: definition.Subject,
			Value:   measurement.Value,
			Minimum: definition.Minimum,
		}
	}

	return result, nil
}

type coverageTotalParser struct{}

// ParseMeasurement finds the TOTAL summary row and parses its trailing
// percentage field.
func (parser coverageTotalParser) ParseMeasurement(reportText string) (Measurement, error) {
	reportLines := splitReportLines(reportText)
	if len(reportLines) == 0 {
		return Measurement{}, MeasurementParseError{ParserName: CoverageTotalParserName, Reason: emptyReportReasonConstant}
	}

	for _, reportLine := range reportLines {
		lineFields := strings.Fields(reportLine)
		if len(lineFields) < 2 || lineFields[0] != coverageTotalRowLabelConstant {
			continue
		}
		return parsePercentToken(CoverageTotalParserName, reportLine, lineFields[len(lineFields)-1])
	}

	return Measurement{}, MeasurementParseError{ParserName: CoverageTotalParserName, Reason: missingTotalRowReasonConstant}
}

type percentLastParser struct{}

// ParseMeasurement parses the last percentage token of the last non-empty line.
func (parser percentLastParser) ParseMeasurement(reportText string) (Measurement, error) {
	reportLines := splitReportLines(reportText)
	if len(reportLines) == 0 {
		return Measurement{}, MeasurementParseError{ParserName: PercentLastParserName, Reason: emptyReportReasonConstant}
	}

	lastLine := reportLines[len(reportLines)-1]
	lineFields := strings.Fields(lastLine)
	for fieldIndex := len(lineFields) - 1; fieldIndex >= 0; fieldIndex-- {
		if strings.HasSuffix(lineFields[fieldIndex], percentSuffixConstant) {
			return parsePercentToken(PercentLastParserName, lastLine, lineFields[fieldIndex])
		}
	}

	return Measurement{}, MeasurementParseError{ParserName: PercentLastParserName, Reason: missingPercentTokenReasonConstant}
}

func splitReportLines(reportText string) []string {
	nonEmptyLines := make([]string, 0)
	for _, reportLine := range strings.Split(reportText, "\n") {
		if len(strings.TrimSpace(reportLine)) > 0 {
			nonEmptyLines = append(nonEmptyLines, reportLine)
		}
	}
	return nonEmptyLines
}

func parsePercentToken(parserName string, sourceLine string, rawToken string) (Measurement, error) {
	numericToken := strings.TrimSuffix(rawToken, percentSuffixConstant)
	parsedValue, parseError := strconv.ParseFloat(numericToken, 64)
	if parseError != nil {
		return Measurement{}, MeasurementParseError{
			ParserName: parserName,
			Reason:     fmt.Sprintf(unparsableMeasurementReasonTemplateConstant, rawToken),
		}
	}
	return Measurement{Value: parsedValue, SourceLine: strings.TrimSpace(sourceLine)}, nil
}
