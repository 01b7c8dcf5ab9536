package resource

import (
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/assetdeploy/internal/model"
	"github.com/shinji-kodama/assetdeploy/internal/source"
)

func newLoader(t *testing.T) *Loader {
	t.Helper()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/data/assets/override.txt", []byte("from disk"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/assets/textures/logo.png", []byte("disk png"), 0o644))

	packaged := source.NewFS(fstest.MapFS{
		"resourcepack/override.txt":  {Data: []byte("from pack")},
		"resourcepack/only-pack.txt": {Data: []byte("packaged only")},
	})
	return NewLoader(fsys, "/data/assets", packaged, "resourcepack")
}

// TestLoader_Load checks the lookup order and the reported origin.
func TestLoader_Load(t *testing.T) {
	l := newLoader(t)

	tests := []struct {
		name   string
		want   string
		origin Origin
	}{
		{"override.txt", "from disk", OriginFilesystem},
		{"only-pack.txt", "packaged only", OriginPackaged},
		{"textures/logo.png", "disk png", OriginFilesystem},
		{`textures\logo.png`, "disk png", OriginFilesystem},
		{"textures/../override.txt", "from disk", OriginFilesystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, origin, err := l.Load(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
			assert.Equal(t, tt.origin, origin)
		})
	}
}

func TestLoader_NotFound(t *testing.T) {
	_, err := newLoader(t).Bytes("missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrResourceNotFound)
}

func TestLoader_NoFallback(t *testing.T) {
	l := NewLoader(afero.NewMemMapFs(), "/data/assets", nil, "")
	_, err := l.String("anything.txt")
	assert.ErrorIs(t, err, model.ErrResourceNotFound)
}

func TestLoader_String(t *testing.T) {
	s, err := newLoader(t).String("only-pack.txt")
	require.NoError(t, err)
	assert.Equal(t, "packaged only", s)
}

// TestLoader_RejectsEscapingNames checks that names cannot reach outside
// the resource root on either lookup path.
func TestLoader_RejectsEscapingNames(t *testing.T) {
	l := newLoader(t)
	for _, name := range []string{"", ".", "..", "../secret", "/etc/passwd", `..\secret`, "a/../../b"} {
		t.Run(name, func(t *testing.T) {
			_, _, err := l.Load(name)
			assert.ErrorIs(t, err, model.ErrInvalidEntryName)
		})
	}
}
