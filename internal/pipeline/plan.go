package pipeline

import (
	"fmt"
	"strings"
)

const (
	cyclicDependencyErrorTemplateConstant = "cyclic dependency: %s"
	cyclePathSeparatorConstant            = " -> "
)

// CyclicDependencyError reports a dependency cycle with the complete path
// from the first repeated task back to itself.
type CyclicDependencyError struct {
	Path []string
}

// Error renders the cycle path.
func (cycleError CyclicDependencyError) Error() string {
	return fmt.Sprintf(cyclicDependencyErrorTemplateConstant, strings.Join(cycleError.Path, cyclePathSeparatorConstant))
}

// ExecutionPlan lists the task steps to run, in order. Every prerequisite of
// a step appears before it. A task appears more than once only when a single
// task's own prerequisite list names it more than once.
type ExecutionPlan struct {
	Steps []TaskDefinition
}

// TaskNames returns the planned step names in execution order.
func (plan ExecutionPlan) TaskNames() []string {
	stepNames := make([]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		stepNames = append(stepNames, step.Name)
	}
	return stepNames
}

type planBuilder struct {
	registry *Registry
	emitted  map[string]struct{}
	visiting map[string]struct{}
	stack    []string
	steps    []TaskDefinition
}

// BuildPlan resolves the requested tasks into an ordered execution plan.
// Transitive prerequisites run before their dependents. Tasks shared across
// branches or across requested names run once; a duplicate entry inside a
// single task's own prerequisite list is planned again as a distinct step.
func BuildPlan(registry *Registry, requestedTaskNames []string) (ExecutionPlan, error) {
	builder := planBuilder{
		registry: registry,
		emitted:  make(map[string]struct{}),
		visiting: make(map[string]struct{}),
	}

	for _, requestedTaskName := range requestedTaskNames {
		trimmedTaskName := strings.TrimSpace(requestedTaskName)
		if _, alreadyPlanned := builder.emitted[trimmedTaskName]; alreadyPlanned {
			continue
		}
		if visitError := builder.visit(trimmedTaskName); visitError != nil {
			return ExecutionPlan{}, visitError
		}
	}

	return ExecutionPlan{Steps: builder.steps}, nil
}

func (builder *planBuilder) visit(taskName string) error {
	definition, lookupError := builder.registry.Lookup(taskName)
	if lookupError != nil {
		if len(builder.stack) > 0 {
			return DanglingPrerequisiteError{
				TaskName:         builder.stack[len(builder.stack)-1],
				PrerequisiteName: taskName,
			}
		}
		return lookupError
	}

	builder.visiting[taskName] = struct{}{}
	builder.stack = append(builder.stack, taskName)

	localSeen := make(map[string]struct{}, len(definition.Prerequisites))
	for _, prerequisiteName := range definition.Prerequisites {
		trimmedPrerequisiteName := strings.TrimSpace(prerequisiteName)

		if _, onStack := builder.visiting[trimmedPrerequisiteName]; onStack {
			return CyclicDependencyError{Path: builder.cyclePath(trimmedPrerequisiteName)}
		}

		if _, repeatedInList := localSeen[trimmedPrerequisiteName]; repeatedInList {
			repeatedDefinition, repeatLookupError := builder.registry.Lookup(trimmedPrerequisiteName)
			if repeatLookupError != nil {
				return DanglingPrerequisiteError{TaskName: taskName, PrerequisiteName: trimmedPrerequisiteName}
			}
			builder.steps = append(builder.steps, repeatedDefinition)
			continue
		}
		localSeen[trimmedPrerequisiteName] = struct{}{}

		if _, alreadyEmitted := builder.emitted[trimmedPrerequisiteName]; alreadyEmitted {
			continue
		}

		if visitError := builder.visit(trimmedPrerequisiteName); visitError != nil {
			return visitError
		}
	}

	builder.stack = builder.stack[:len(builder.stack)-1]
	delete(builder.visiting, taskName)

	builder.emitted[taskName] = struct{}{}
	builder.steps = append(builder.steps, definition)
	return nil
}

func (builder *planBuilder) cyclePath(repeatedTaskName string) []string {
	cycleStart := 0
	for stackIndex, stackedTaskName := range builder.stack {
		if stackedTaskName == repeatedTaskName {
			cycleStart = stackIndex
			break
		}
	}
	cyclePath := append([]string(nil), builder.stack[cycleStart:]...)
	return append(cyclePath, repeatedTaskName)
}
