package taskrunner

import (
	"fmt"
	"strings"
	"time"

	"github.com/tyemirov/relpipe/internal/pipeline"
)

// RenderSummaryLine returns the summary line printed after pipeline runs.
// Empty plans produce no summary.
func RenderSummaryLine(result pipeline.RunResult) string {
	if len(result.StepOutcomes) == 0 {
		return ""
	}

	failedSteps := 0
	skippedSteps := 0
	for _, stepOutcome := range result.StepOutcomes {
		if stepOutcome.Failed {
			failedSteps++
		}
		if stepOutcome.Skipped {
			skippedSteps++
		}
	}

	parts := []string{
		fmt.Sprintf("Summary: tasks=%d", len(result.StepOutcomes)),
		fmt.Sprintf("succeeded=%d", result.SucceededSteps()),
		fmt.Sprintf("failed=%d", failedSteps),
		fmt.Sprintf("skipped=%d", skippedSteps),
	}

	parts = append(parts, fmt.Sprintf("duration_human=%s", result.Duration.Round(time.Millisecond)))
	parts = append(parts, fmt.Sprintf("duration_ms=%d", result.Duration.Milliseconds()))

	return strings.Join(parts, " ")
}
