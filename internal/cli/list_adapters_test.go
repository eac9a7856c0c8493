package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunListAdaptersPrintsCanonicalJSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := RootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"list-adapters"})

	require.NoError(t, cmd.Execute())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	adapters, ok := decoded["adapters"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, adapters)

	names := make([]string, 0, len(adapters))
	for _, a := range adapters {
		entry, ok := a.(map[string]any)
		require.True(t, ok)
		names = append(names, entry["name"].(string))
	}
	require.Contains(t, names, "archive")
	require.Contains(t, names, "package")
}

func TestRunListAdaptersRejectsExtraArgs(t *testing.T) {
	var buf bytes.Buffer
	cmd := RootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"list-adapters", "unexpected"})

	require.Error(t, cmd.Execute())
}
