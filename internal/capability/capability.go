// Package capability implements list_adapters from spec §6: a static
// description of every adapter class, the formats it supports, and
// (for the archive and package classes) live availability probes of the
// external tools they may shell out to.
package capability

import (
	"context"
	"sort"

	"github.com/saferun/adaptcore/internal/dispatch"
	"github.com/saferun/adaptcore/internal/exectool"
)

// ListMode records whether an adapter class is entirely self-contained
// (built_in) or also has a plugin-backed route (mixed).
type ListMode string

const (
	ListModeBuiltIn ListMode = "built_in"
	ListModeMixed   ListMode = "mixed"
)

// PluginAvailability is one entry in an AdapterDescriptor's plugins vector.
type PluginAvailability struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// AdapterDescriptor describes one adapter class's static capabilities.
type AdapterDescriptor struct {
	Name    string               `json:"name"`
	Mode    ListMode             `json:"mode"`
	Plugins []PluginAvailability `json:"plugins"`
	Formats []string             `json:"formats"`
}

// AdapterListReport is the full list_adapters response, already sorted by
// (adapter, format, plugin.name) per spec §6.
type AdapterListReport struct {
	Adapters []AdapterDescriptor `json:"adapters"`
}

type classSpec struct {
	name    string
	mode    ListMode
	plugins []string
	formats []string
}

var classSpecs = []classSpec{
	{
		name:    "archive",
		mode:    ListModeMixed,
		plugins: []string{"tar", "7z"},
		formats: []string{".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".txz", ".7z"},
	},
	{
		name:    "package",
		mode:    ListModeMixed,
		plugins: []string{"tar"},
		formats: []string{".msi", ".msix", ".exe", ".nupkg", ".whl", ".jar", ".tar.gz", ".tgz", ".tar.xz", ".txz", ".deb", ".rpm", ".appimage", ".pkg", ".dmg"},
	},
	{
		name:    "extension",
		mode:    ListModeBuiltIn,
		formats: []string{".crx", ".vsix", ".xpi"},
	},
	{
		name:    "iac",
		mode:    ListModeBuiltIn,
		formats: []string{".tf", ".tfvars", ".hcl", ".yaml", ".yml", ".json", ".bicep", ".template"},
	},
	{
		name:    "cicd",
		mode:    ListModeBuiltIn,
		formats: []string{".yaml", ".yml", ".json"},
	},
	{
		name:    "document",
		mode:    ListModeBuiltIn,
		formats: []string{".pdf", ".docm", ".xlsm", ".rtf", ".chm"},
	},
	{
		name:    "container",
		mode:    ListModeBuiltIn,
		formats: []string{".tar", ".json", ".yaml", ".yml"},
	},
	{
		name:    "image",
		mode:    ListModeBuiltIn,
		formats: []string{".iso", ".vhd", ".vhdx", ".vmdk", ".qcow2"},
	},
	{
		name:    "scm",
		mode:    ListModeBuiltIn,
		formats: []string{".git"},
	},
	{
		name:    "signature",
		mode:    ListModeBuiltIn,
		formats: []string{".cer", ".crt", ".pem", ".p7b", ".sig"},
	},
}

// ListAdapters builds the AdapterListReport, probing plugin availability
// with exectool's 3-second --help probe (spec §6).
func ListAdapters(ctx context.Context) AdapterListReport {
	probed := make(map[string]bool, len(dispatch.SortedPluginNames()))
	for _, name := range dispatch.SortedPluginNames() {
		probed[name] = exectool.Probe(ctx, name)
	}

	descriptors := make([]AdapterDescriptor, 0, len(classSpecs))
	for _, spec := range classSpecs {
		formats := append([]string(nil), spec.formats...)
		sort.Strings(formats)

		var plugins []PluginAvailability
		names := append([]string(nil), spec.plugins...)
		sort.Strings(names)
		for _, name := range names {
			plugins = append(plugins, PluginAvailability{Name: name, Available: probed[name]})
		}

		descriptors = append(descriptors, AdapterDescriptor{
			Name:    spec.name,
			Mode:    spec.mode,
			Plugins: plugins,
			Formats: formats,
		})
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })
	return AdapterListReport{Adapters: descriptors}
}

// Describe returns the descriptor for one adapter class, or ok=false when
// adapterID does not name a known class.
func Describe(ctx context.Context, adapterID string) (AdapterDescriptor, bool) {
	report := ListAdapters(ctx)
	for _, d := range report.Adapters {
		if d.Name == adapterID {
			return d, true
		}
	}
	return AdapterDescriptor{}, false
}
