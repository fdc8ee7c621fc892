package version_test

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/relpipe/internal/version"
)

type stubBuildInfoProvider struct {
	info      *debug.BuildInfo
	available bool
}

func (provider stubBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	if !provider.available {
		return nil, false
	}
	return provider.info, true
}

func TestVersionUsesBuildInfoWhenAvailable(t *testing.T) {
	provider := stubBuildInfoProvider{info: &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}}, available: true}
	detector := version.NewDetector(version.Dependencies{BuildInfoProvider: provider})

	require.Equal(t, "v1.2.3", detector.Version())
}

func TestVersionPrefersLinkedVersion(t *testing.T) {
	provider := stubBuildInfoProvider{info: &debug.BuildInfo{Main: debug.Module{Version: "v1.2.3"}}, available: true}
	detector := version.NewDetector(version.Dependencies{BuildInfoProvider: provider, LinkedVersion: "v2.0.0"})

	require.Equal(t, "v2.0.0", detector.Version())
}

func TestVersionIgnoresDevelBuildInfo(t *testing.T) {
	provider := stubBuildInfoProvider{info: &debug.BuildInfo{Main: debug.Module{Version: "devel"}}, available: true}
	detector := version.NewDetector(version.Dependencies{BuildInfoProvider: provider})

	require.Equal(t, "unknown", detector.Version())
}

func TestVersionReturnsUnknownWhenBuildInfoUnavailable(t *testing.T) {
	detector := version.NewDetector(version.Dependencies{BuildInfoProvider: stubBuildInfoProvider{}})

	require.Equal(t, "unknown", detector.Version())
}

func TestDetectResolvesWithDefaults(t *testing.T) {
	resolved := version.Detect(version.Dependencies{LinkedVersion: "v3.1.4"})

	require.Equal(t, "v3.1.4", resolved)
}
