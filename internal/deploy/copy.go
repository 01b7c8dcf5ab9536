package deploy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultBufferSize is the size of the intermediate copy buffer. Entries of
// any size stream through it; nothing assumes an entry fits in memory.
const DefaultBufferSize = 4096

// filePerm is the permission used for deployed files.
const filePerm os.FileMode = 0o644

// copyBuffer streams src into dst through buf.
//
// Each iteration reads one chunk, takes the actual byte count n, and writes
// exactly buf[:n]. A final short read therefore never appends stale bytes
// left over in buf from the previous chunk. A writer that accepts fewer
// bytes than offered fails with io.ErrShortWrite.
//
// io.CopyBuffer is not used because it prefers WriterTo/ReaderFrom when the
// streams implement them, bypassing the bounded buffer.
func copyBuffer(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			if wn < 0 || wn > n {
				wn = 0
				if werr == nil {
					werr = errors.New("invalid write result")
				}
			}
			written += int64(wn)
			if werr != nil {
				return written, werr
			}
			if wn != n {
				return written, io.ErrShortWrite
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}

// copyOperation is one source entry → destination file transfer. It owns
// exactly one read stream and one write stream, and both are released
// before run returns, on success and on failure.
type copyOperation struct {
	open func() (io.ReadCloser, error)
	fsys afero.Fs
	dest string
	buf  []byte
}

// run performs the transfer and returns the number of bytes written.
// The destination is truncated if it already exists. A close error on the
// destination counts as a failed copy since buffered data may be lost.
func (op *copyOperation) run() (n int64, err error) {
	in, err := op.open()
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := op.fsys.OpenFile(op.dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return 0, fmt.Errorf("open destination %s: %w", filepath.Base(op.dest), err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close destination %s: %w", filepath.Base(op.dest), cerr)
		}
	}()

	n, err = copyBuffer(out, in, op.buf)
	if err != nil {
		return n, fmt.Errorf("copy after %d bytes: %w", n, err)
	}
	return n, nil
}
