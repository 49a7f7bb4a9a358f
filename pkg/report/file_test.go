package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileSink_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	sink := NewFileSink(path, FormatJSON)
	require.NoError(t, sink.Record("TestDockerDaemonRunning", true, CategoryFunctional))
	require.NoError(t, sink.Record("TestImageExists", false, CategoryFunctional))

	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, sink.RunID(), doc.RunID)
	assert.False(t, doc.Passed)
	assert.Equal(t, 2, doc.Total)
	assert.Equal(t, 1, doc.Failed)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, "TestImageExists", doc.Results[1].Name)
}

func TestFileSink_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	sink := NewFileSink(path, FormatYAML)
	require.NoError(t, sink.Record("TestContainerNetwork", true, CategoryFunctional))

	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, true, doc["passed"])
	assert.Equal(t, 1, doc["total"])
	assert.Contains(t, string(data), "name: TestContainerNetwork")
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := Encode(Document{}, Format("xml"))
	assert.Error(t, err)
}
