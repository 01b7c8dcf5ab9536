package pack

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSource_ListsFlatPack checks the embedded pack is non-empty and flat,
// so the default (non-recursive) deployment can copy every entry.
func TestSource_ListsFlatPack(t *testing.T) {
	src := Source()

	names, err := src.List(Folder)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		isDir, err := src.IsDir(Folder + "/" + name)
		require.NoError(t, err)
		assert.False(t, isDir, "embedded pack must stay flat: %s", name)
	}
}

func TestSource_PackMetadata(t *testing.T) {
	rc, err := Source().Open(Folder + "/pack.json")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	var meta struct {
		Name   string `json:"name"`
		Format int    `json:"format"`
	}
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "vanilla", meta.Name)
	assert.Equal(t, 1, meta.Format)
}
