package pipeline

import (
	"embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed presets/*.yaml
var embeddedPipelinePresets embed.FS

const (
	// ReleasePresetName identifies the embedded reference release pipeline.
	ReleasePresetName = "release"

	presetReadErrorTemplateConstant = "failed to read embedded pipeline %q: %w"
)

// PresetMetadata describes an embedded pipeline definition.
type PresetMetadata struct {
	Name        string
	Description string
}

// PresetCatalog loads embedded pipeline definitions.
type PresetCatalog interface {
	List() []PresetMetadata
	Load(presetName string, variables map[string]string) (*Registry, bool, error)
}

type presetDefinition struct {
	Name        string
	Description string
	FileName    string
}

var embeddedPresetDefinitions = []presetDefinition{
	{
		Name:        ReleasePresetName,
		Description: "Reference release pipeline: clean, test, coverage, lint, release.",
		FileName:    "presets/release.yaml",
	},
}

type embeddedPresetCatalog struct {
	files       embed.FS
	definitions []presetDefinition
}

// NewEmbeddedPresetCatalog constructs a PresetCatalog backed by embedded YAML definitions.
func NewEmbeddedPresetCatalog() PresetCatalog {
	return &embeddedPresetCatalog{
		files:       embeddedPipelinePresets,
		definitions: embeddedPresetDefinitions,
	}
}

func (catalog *embeddedPresetCatalog) List() []PresetMetadata {
	if catalog == nil || len(catalog.definitions) == 0 {
		return nil
	}

	presetMetadata := make([]PresetMetadata, 0, len(catalog.definitions))
	for _, definition := range catalog.definitions {
		presetMetadata = append(presetMetadata, PresetMetadata{Name: definition.Name, Description: definition.Description})
	}

	sort.Slice(presetMetadata, func(firstIndex, secondIndex int) bool {
		return presetMetadata[firstIndex].Name < presetMetadata[secondIndex].Name
	})

	return presetMetadata
}

func (catalog *embeddedPresetCatalog) Load(presetName string, variables map[string]string) (*Registry, bool, error) {
	trimmedPresetName := strings.TrimSpace(presetName)
	for _, definition := range catalog.definitions {
		if definition.Name != trimmedPresetName {
			continue
		}

		presetBytes, readError := catalog.files.ReadFile(definition.FileName)
		if readError != nil {
			return nil, true, fmt.Errorf(presetReadErrorTemplateConstant, definition.Name, readError)
		}

		registry, parseError := ParsePipeline(presetBytes, variables)
		if parseError != nil {
			return nil, true, parseError
		}
		return registry, true, nil
	}

	return nil, false, nil
}
