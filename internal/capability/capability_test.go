package capability

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAdaptersSortedByName(t *testing.T) {
	report := ListAdapters(context.Background())
	names := make([]string, len(report.Adapters))
	for i, d := range report.Adapters {
		names[i] = d.Name
	}
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "archive")
	assert.Contains(t, names, "scm")
}

func TestListAdaptersFormatsAndPluginsAreSorted(t *testing.T) {
	report := ListAdapters(context.Background())
	for _, d := range report.Adapters {
		assert.True(t, sort.StringsAreSorted(d.Formats), "formats for %s not sorted", d.Name)
		names := make([]string, len(d.Plugins))
		for i, p := range d.Plugins {
			names[i] = p.Name
		}
		assert.True(t, sort.StringsAreSorted(names), "plugins for %s not sorted", d.Name)
	}
}

func TestArchiveAdapterIsMixedModeWithPlugins(t *testing.T) {
	d, ok := Describe(context.Background(), "archive")
	require.True(t, ok)
	assert.Equal(t, ListModeMixed, d.Mode)
	assert.ElementsMatch(t, []string{"7z", "tar"}, pluginNames(d))
}

func TestExtensionAdapterIsBuiltInWithNoPlugins(t *testing.T) {
	d, ok := Describe(context.Background(), "extension")
	require.True(t, ok)
	assert.Equal(t, ListModeBuiltIn, d.Mode)
	assert.Empty(t, d.Plugins)
}

func TestDescribeUnknownAdapterIsNotFound(t *testing.T) {
	_, ok := Describe(context.Background(), "does_not_exist")
	assert.False(t, ok)
}

func pluginNames(d AdapterDescriptor) []string {
	out := make([]string, len(d.Plugins))
	for i, p := range d.Plugins {
		out[i] = p.Name
	}
	return out
}
