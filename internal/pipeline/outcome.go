package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// RunResult captures aggregated metrics for one pipeline run.
type RunResult struct {
	RunIdentifier string
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	StepOutcomes  []StepOutcome
	Failure       *TaskFailure
}

// StepOutcome reports the execution status of a single planned task.
type StepOutcome struct {
	TaskName       string
	ActionOutcomes []ActionOutcome
	Duration       time.Duration
	Failed         bool
	Skipped        bool
}

// ActionOutcome reports the execution status of a single task action.
type ActionOutcome struct {
	TaskName        string
	ActionIndex     int
	CommandLine     string
	StandardOutput  string
	StandardError   string
	ExitCode        int
	Duration        time.Duration
	ThresholdResult *ThresholdResult
}

// TaskFailure captures the first failure that aborted the run.
type TaskFailure struct {
	TaskName    string
	ActionIndex int
	CommandLine string
	Err         error
}

// SucceededSteps counts the steps that ran to completion.
func (result RunResult) SucceededSteps() int {
	succeeded := 0
	for _, stepOutcome := range result.StepOutcomes {
		if !stepOutcome.Failed && !stepOutcome.Skipped {
			succeeded++
		}
	}
	return succeeded
}

func newRunIdentifier() string {
	return uuid.NewString()
}
