// Package version resolves the application version reported by the CLI.
package version

import (
	"runtime/debug"
	"strings"
)

const (
	unknownVersionFallbackConstant = "unknown"
	buildInfoDevelVersionValue     = "devel"
)

// buildVersion may be injected at link time to pin the released version.
var buildVersion string

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

// Detector resolves application version strings.
type Detector struct {
	buildInfoProvider BuildInfoProvider
	linkedVersion     string
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	BuildInfoProvider BuildInfoProvider
	LinkedVersion     string
}

// NewDetector constructs a Detector with the supplied dependencies or sensible defaults.
func NewDetector(dependencies Dependencies) *Detector {
	provider := dependencies.BuildInfoProvider
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}

	linkedVersion := strings.TrimSpace(dependencies.LinkedVersion)
	if len(linkedVersion) == 0 {
		linkedVersion = strings.TrimSpace(buildVersion)
	}

	return &Detector{buildInfoProvider: provider, linkedVersion: linkedVersion}
}

// Detect resolves the application version using the supplied dependencies.
func Detect(dependencies Dependencies) string {
	return NewDetector(dependencies).Version()
}

// Version returns the detected application version string. The link-time
// version wins; module build metadata is the fallback.
func (detector *Detector) Version() string {
	if detector == nil {
		return unknownVersionFallbackConstant
	}

	if len(detector.linkedVersion) > 0 {
		return detector.linkedVersion
	}

	if buildInfoVersion := detector.versionFromBuildInfo(); len(buildInfoVersion) > 0 {
		return buildInfoVersion
	}

	return unknownVersionFallbackConstant
}

func (detector *Detector) versionFromBuildInfo() string {
	if detector.buildInfoProvider == nil {
		return ""
	}

	buildInfo, available := detector.buildInfoProvider.Read()
	if !available || buildInfo == nil {
		return ""
	}

	trimmedVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(trimmedVersion) == 0 {
		return ""
	}

	if strings.EqualFold(trimmedVersion, buildInfoDevelVersionValue) {
		return ""
	}

	return trimmedVersion
}
