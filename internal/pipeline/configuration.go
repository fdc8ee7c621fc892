package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const (
	pipelineFileInvalidMessageConstant          = "invalid pipeline definition"
	pipelineLoadErrorTemplateConstant           = "failed to load pipeline definition: %w"
	pipelineParseErrorTemplateConstant          = "%w: %v"
	pipelinePathRequiredMessageConstant         = "pipeline definition path must be provided"
	pipelineEmptyTasksMessageConstant           = "pipeline must define at least one task"
	pipelineTasksSequenceMessageConstant        = "tasks block must be defined as a sequence of tasks"
	pipelineTemplateNameConstant                = "pipeline"
	pipelineTemplateMissingKeyOptionConstant    = "missingkey=error"
	pipelineTemplateRenderErrorTemplateConstant = "%w: template rendering failed: %v"
)

// ErrPipelineFileInvalid marks pipeline definition documents rejected during loading.
var ErrPipelineFileInvalid = errors.New(pipelineFileInvalidMessageConstant)

type pipelineFile struct {
	Tasks []pipelineTaskWrapper `yaml:"tasks"`
}

type pipelineTaskWrapper struct {
	Task TaskConfiguration `yaml:"task"`
}

// TaskConfiguration declares one task of a pipeline definition document.
type TaskConfiguration struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description"`
	Needs       []string              `yaml:"needs"`
	Actions     []ActionConfiguration `yaml:"actions"`
}

// ActionConfiguration declares one action of a task.
type ActionConfiguration struct {
	Command []string           `yaml:"command"`
	Script  string             `yaml:"script"`
	Upload  string             `yaml:"upload"`
	Gate    *GateConfiguration `yaml:"gate"`
}

// GateConfiguration declares a threshold gate on an action.
type GateConfiguration struct {
	Parser  string  `yaml:"parser"`
	Minimum float64 `yaml:"minimum"`
	Subject string  `yaml:"subject"`
}

// LoadPipeline reads a pipeline definition document from disk, renders its
// template variables, and registers the declared tasks.
func LoadPipeline(filePath string, variables map[string]string) (*Registry, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return nil, fmt.Errorf(pipelineParseErrorTemplateConstant, ErrPipelineFileInvalid, pipelinePathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(pipelineLoadErrorTemplateConstant, readError)
	}

	return ParsePipeline(contentBytes, variables)
}

// ParsePipeline renders the document's template variables, parses the YAML
// task declarations, and registers them in a fresh registry.
func ParsePipeline(contentBytes []byte, variables map[string]string) (*Registry, error) {
	renderedBytes, renderError := renderPipelineTemplate(contentBytes, variables)
	if renderError != nil {
		return nil, renderError
	}

	if sequenceError := ensureTasksSequence(renderedBytes); sequenceError != nil {
		return nil, fmt.Errorf(pipelineParseErrorTemplateConstant, ErrPipelineFileInvalid, sequenceError)
	}

	var parsedPipeline pipelineFile
	documentDecoder := yaml.NewDecoder(bytes.NewReader(renderedBytes))
	documentDecoder.KnownFields(true)
	if decodeError := documentDecoder.Decode(&parsedPipeline); decodeError != nil {
		return nil, fmt.Errorf(pipelineParseErrorTemplateConstant, ErrPipelineFileInvalid, decodeError)
	}

	if len(parsedPipeline.Tasks) == 0 {
		return nil, fmt.Errorf(pipelineParseErrorTemplateConstant, ErrPipelineFileInvalid, pipelineEmptyTasksMessageConstant)
	}

	registry := NewRegistry()
	for _, taskWrapper := range parsedPipeline.Tasks {
		if registrationError := registry.Register(taskWrapper.Task.toDefinition()); registrationError != nil {
			return nil, registrationError
		}
	}

	return registry, nil
}

func (configuration TaskConfiguration) toDefinition() TaskDefinition {
	definition := TaskDefinition{
		Name:          strings.TrimSpace(configuration.Name),
		Description:   strings.TrimSpace(configuration.Description),
		Prerequisites: append([]string(nil), configuration.Needs...),
	}

	for _, actionConfiguration := range configuration.Actions {
		action := ActionDefinition{
			Command: append([]string(nil), actionConfiguration.Command...),
			Script:  actionConfiguration.Script,
			Upload:  actionConfiguration.Upload,
		}
		if actionConfiguration.Gate != nil {
			action.Gate = &GateDefinition{
				Parser:  actionConfiguration.Gate.Parser,
				Minimum: actionConfiguration.Gate.Minimum,
				Subject: actionConfiguration.Gate.Subject,
			}
		}
		definition.Actions = append(definition.Actions, action)
	}

	return definition
}

func renderPipelineTemplate(contentBytes []byte, variables map[string]string) ([]byte, error) {
	pipelineTemplate, templateParseError := template.New(pipelineTemplateNameConstant).
		Option(pipelineTemplateMissingKeyOptionConstant).
		Parse(string(contentBytes))
	if templateParseError != nil {
		return nil, fmt.Errorf(pipelineTemplateRenderErrorTemplateConstant, ErrPipelineFileInvalid, templateParseError)
	}

	if variables == nil {
		variables = map[string]string{}
	}

	var renderedBuffer bytes.Buffer
	if renderError := pipelineTemplate.Execute(&renderedBuffer, variables); renderError != nil {
		return nil, fmt.Errorf(pipelineTemplateRenderErrorTemplateConstant, ErrPipelineFileInvalid, renderError)
	}

	return renderedBuffer.Bytes(), nil
}

func ensureTasksSequence(contentBytes []byte) error {
	var tasksWrapper struct {
		Tasks yaml.Node `yaml:"tasks"`
	}

	if unmarshalError := yaml.Unmarshal(contentBytes, &tasksWrapper); unmarshalError != nil {
		return unmarshalError
	}

	if tasksWrapper.Tasks.Kind == 0 {
		return nil
	}

	switch tasksWrapper.Tasks.Kind {
	case yaml.SequenceNode:
		return nil
	default:
		return errors.New(pipelineTasksSequenceMessageConstant)
	}
}
