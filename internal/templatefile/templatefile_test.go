package templatefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/pose-template/pkg/skeleton"
	"github.com/menta2k/pose-template/pkg/types"
)

var sample = types.KeypointStructure{
	Edges: []types.EdgeDescriptor{{Nodes: []string{"head", "neck"}}},
	Positions: []types.Position{
		{Label: "head", X: 0.5, Y: 0.1},
		{Label: "neck", X: 0.5, Y: 0.3},
	},
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates", "person.json")
	require.NoError(t, Save(path, sample))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestEncodeEmptyStructure(t *testing.T) {
	data, err := Encode(types.KeypointStructure{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"edges":[],"positions":[]}`, string(data))

	_, err = Decode(data)
	assert.NoError(t, err)
}

func TestDecodeRejectsInvalidTemplates(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"edges":`},
		{"missing positions", `{"edges":[]}`},
		{"nodes not an array", `{"edges":[{"nodes":"a"}],"positions":[]}`},
		{"numeric label", `{"edges":[],"positions":[{"label":1,"x":0,"y":0}]}`},
		{"string coordinate", `{"edges":[],"positions":[{"label":"a","x":"0.1","y":0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeKeepsMalformedEdgesForFiltering(t *testing.T) {
	data := `{
		"edges": [{"nodes": ["head"]}, {"nodes": ["head", "head"]}, {"nodes": ["head", "tail"]}, {"nodes": ["head", "neck"]}],
		"positions": [{"label": "head", "x": 0.5, "y": 0.1}, {"label": "neck", "x": 0.5, "y": 0.3}]
	}`

	structure, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Len(t, structure.Edges, 4)

	state := skeleton.FormatTemplate(structure, nil, types.ROI{Width: 100, Height: 100})
	require.Len(t, state.Points, 2)
	require.Len(t, state.Edges, 1)
	assert.Equal(t, "head", state.Edges[0].From.Label.Name)
	assert.Equal(t, "neck", state.Edges[0].To.Label.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWatchReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "person.json")
	require.NoError(t, Save(path, types.KeypointStructure{}))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, Save(path, sample))

	select {
	case got := <-w.Changes():
		assert.Equal(t, sample, got)
	case err := <-w.Errors():
		t.Fatalf("unexpected watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatchReportsInvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "person.json")
	require.NoError(t, Save(path, sample))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"positions":[]}`), 0644))

	select {
	case err := <-w.Errors():
		assert.Error(t, err)
	case <-w.Changes():
		t.Fatal("invalid template must not be delivered")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "person.json")
	require.NoError(t, Save(path, sample))

	w, err := Watch(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
