package deploy

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortWriter accepts at most limit bytes per call without reporting an
// error, which io.Writer forbids and copyBuffer must catch.
type shortWriter struct {
	limit int
	buf   bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		p = p[:w.limit]
	}
	return w.buf.Write(p)
}

type errWriter struct{ err error }

func (w errWriter) Write([]byte) (int, error) { return 0, w.err }

// TestCopyBuffer covers chunking behaviors the copy loop must handle:
// short reads, data returned together with EOF, and exact buffer multiples.
func TestCopyBuffer(t *testing.T) {
	payload := strings.Repeat("0123456789", 1000) // 10000 bytes

	tests := []struct {
		name   string
		reader func() io.Reader
		bufLen int
	}{
		{"plain reader", func() io.Reader { return strings.NewReader(payload) }, 4096},
		{"one byte at a time", func() io.Reader { return iotest.OneByteReader(strings.NewReader(payload)) }, 4096},
		{"half reads", func() io.Reader { return iotest.HalfReader(strings.NewReader(payload)) }, 4096},
		{"data with EOF", func() io.Reader { return iotest.DataErrReader(strings.NewReader(payload)) }, 4096},
		{"exact multiple", func() io.Reader { return strings.NewReader(payload[:8192]) }, 4096},
		{"tiny buffer", func() io.Reader { return strings.NewReader(payload) }, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst bytes.Buffer
			r := tt.reader()

			n, err := copyBuffer(&dst, r, make([]byte, tt.bufLen))
			require.NoError(t, err)

			want := payload
			if tt.name == "exact multiple" {
				want = payload[:8192]
			}
			assert.Equal(t, int64(len(want)), n)
			assert.Equal(t, want, dst.String())
		})
	}
}

// TestCopyBuffer_NoResidue fills the buffer with garbage first, then copies
// a source whose last chunk is short. Only the bytes actually read may be
// written.
func TestCopyBuffer_NoResidue(t *testing.T) {
	buf := bytes.Repeat([]byte{0xFF}, 4096)
	src := bytes.Repeat([]byte{0x00}, 4097)

	var dst bytes.Buffer
	n, err := copyBuffer(&dst, bytes.NewReader(src), buf)
	require.NoError(t, err)
	assert.Equal(t, int64(4097), n)
	assert.Equal(t, src, dst.Bytes())
}

func TestCopyBuffer_ShortWrite(t *testing.T) {
	w := &shortWriter{limit: 3}
	n, err := copyBuffer(w, strings.NewReader("hello"), make([]byte, 16))
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.Equal(t, int64(3), n)
}

func TestCopyBuffer_WriteError(t *testing.T) {
	boom := errors.New("disk full")
	_, err := copyBuffer(errWriter{err: boom}, strings.NewReader("hello"), make([]byte, 16))
	assert.ErrorIs(t, err, boom)
}

func TestCopyBuffer_ReadError(t *testing.T) {
	boom := errors.New("bad sector")
	var dst bytes.Buffer
	n, err := copyBuffer(&dst, iotest.TimeoutReader(strings.NewReader("hello")), make([]byte, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, iotest.ErrTimeout)
	assert.Equal(t, int64(2), n)

	_, err = copyBuffer(&dst, iotest.ErrReader(boom), make([]byte, 2))
	assert.ErrorIs(t, err, boom)
}

// closeTracker records whether Close was called.
type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

// TestCopyOperation_ReleasesStreams checks both streams are closed on the
// success path and on a read failure.
func TestCopyOperation_ReleasesStreams(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/out", 0o755))

	t.Run("success", func(t *testing.T) {
		src := &closeTracker{Reader: strings.NewReader("data")}
		op := &copyOperation{
			open: func() (io.ReadCloser, error) { return src, nil },
			fsys: fsys,
			dest: "/out/ok.txt",
			buf:  make([]byte, 4),
		}
		n, err := op.run()
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.True(t, src.closed)
	})

	t.Run("read failure", func(t *testing.T) {
		src := &closeTracker{Reader: iotest.ErrReader(errors.New("boom"))}
		op := &copyOperation{
			open: func() (io.ReadCloser, error) { return src, nil },
			fsys: fsys,
			dest: "/out/bad.txt",
			buf:  make([]byte, 4),
		}
		_, err := op.run()
		require.Error(t, err)
		assert.True(t, src.closed)
	})

	t.Run("destination failure", func(t *testing.T) {
		src := &closeTracker{Reader: strings.NewReader("data")}
		op := &copyOperation{
			open: func() (io.ReadCloser, error) { return src, nil },
			fsys: afero.NewReadOnlyFs(fsys),
			dest: "/out/ro.txt",
			buf:  make([]byte, 4),
		}
		_, err := op.run()
		require.Error(t, err)
		assert.True(t, src.closed, "source must be closed even if the destination never opened")
	})
}
