package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configurationKeyDelimiterConstant          = "."
	environmentKeyDelimiterConstant            = "_"
	embeddedConfigurationReadErrorTemplate     = "unable to read embedded configuration: %w"
	explicitConfigurationReadErrorTemplate     = "unable to read configuration file %s: %w"
	searchedConfigurationMergeErrorTemplate    = "unable to merge discovered configuration: %w"
	configurationUnmarshalErrorTemplateMessage = "unable to decode configuration: %w"
)

// LoadedConfiguration reports metadata about a completed configuration load.
type LoadedConfiguration struct {
	// ConfigFileUsed holds the path of the configuration file that was merged,
	// or the empty string when no file was found.
	ConfigFileUsed string
}

// ConfigurationLoader merges embedded defaults, configuration files, and
// environment variables into a typed configuration structure.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// NewConfigurationLoader constructs a ConfigurationLoader for the named
// configuration file, searching the provided directories in order.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration registers baseline configuration content that is
// applied before defaults, files, and environment variables.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationContent []byte, configurationType string) {
	loader.embeddedConfiguration = append([]byte(nil), configurationContent...)
	loader.embeddedConfigurationType = configurationType
}

// LoadConfiguration merges configuration sources into the target structure.
// Precedence from lowest to highest: defaults, embedded configuration, the
// configuration file (an explicit path wins over search paths), environment
// variables carrying the loader's prefix.
func (loader *ConfigurationLoader) LoadConfiguration(explicitConfigurationPath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigType(loader.configurationType)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		viperInstance.SetConfigType(loader.embeddedConfigurationType)
		if readError := viperInstance.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationReadErrorTemplate, readError)
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	if len(strings.TrimSpace(explicitConfigurationPath)) > 0 {
		viperInstance.SetConfigFile(explicitConfigurationPath)
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(explicitConfigurationReadErrorTemplate, explicitConfigurationPath, mergeError)
		}
	} else {
		viperInstance.SetConfigName(loader.configurationName)
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &configFileNotFoundError) {
				return LoadedConfiguration{}, fmt.Errorf(searchedConfigurationMergeErrorTemplate, mergeError)
			}
		}
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeyDelimiterConstant, environmentKeyDelimiterConstant))
	viperInstance.AutomaticEnv()

	if unmarshalError := viperInstance.Unmarshal(target); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateMessage, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}
