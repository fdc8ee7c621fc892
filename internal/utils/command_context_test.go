package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithConfigurationFilePathStoresValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithConfigurationFilePath(base, "/tmp/config.yaml")

	configurationFilePath, exists := accessor.ConfigurationFilePath(enriched)
	require.True(t, exists)
	require.Equal(t, "/tmp/config.yaml", configurationFilePath)
}

func TestConfigurationFilePathHandlesMissingValue(t *testing.T) {
	accessor := NewCommandContextAccessor()

	_, exists := accessor.ConfigurationFilePath(context.Background())
	require.False(t, exists)
}

func TestWithExecutionFlagsStoresValues(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	flags := ExecutionFlags{DryRun: true, DryRunSet: true}

	enriched := accessor.WithExecutionFlags(base, flags)

	retrieved, exists := accessor.ExecutionFlags(enriched)
	require.True(t, exists)
	require.Equal(t, flags, retrieved)
}

func TestWithExecutionFlagsHandlesMissingContext(t *testing.T) {
	accessor := NewCommandContextAccessor()

	_, exists := accessor.ExecutionFlags(context.Background())
	require.False(t, exists)
}

func TestWithLogLevelStoresTrimmedValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithLogLevel(base, " debug ")

	logLevel, exists := accessor.LogLevel(enriched)
	require.True(t, exists)
	require.Equal(t, "debug", logLevel)
}

func TestWithLogLevelSkipsEmptyValue(t *testing.T) {
	accessor := NewCommandContextAccessor()
	base := context.Background()
	enriched := accessor.WithLogLevel(base, "   ")

	_, exists := accessor.LogLevel(enriched)
	require.False(t, exists)
}
