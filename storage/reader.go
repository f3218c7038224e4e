// Package storage provides the low-level seekable, peekable byte reader shared
// by every tape- and packet-level reader in this module.
package storage

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Reader wraps an io.ReadSeeker with a small peek buffer so that callers can
// inspect upcoming bytes (to recognise a signature, or sanity-check a length)
// without consuming them, while still supporting exact seeks. A bufio.Reader
// is deliberately not used here: its read-ahead buffer cannot be safely
// invalidated after an underlying Seek, which every consumer of this type
// relies on.
type Reader struct {
	source io.ReadSeeker

	peek    []byte // bytes read ahead of the logical cursor, not yet consumed
	peekPos int     // consumed offset within peek
}

// NewReader wraps source for peekable, seekable reading.
func NewReader(source io.ReadSeeker) *Reader {
	return &Reader{source: source}
}

// Read implements io.Reader, first draining any peeked bytes.
func (r *Reader) Read(p []byte) (int, error) {
	n := 0

	if avail := len(r.peek) - r.peekPos; avail > 0 {
		n = copy(p, r.peek[r.peekPos:])
		r.peekPos += n
		r.compact()
		if n == len(p) {
			return n, nil
		}
	}

	m, err := r.source.Read(p[n:])
	return n + m, err
}

// ReadByte reads a single byte, returning 0 on error. Matches the teacher's
// call sites, which treat a read past EOF as "nothing more to do" rather than
// a fatal condition at the call site itself.
func (r *Reader) ReadByte() byte {
	b, _ := r.ReadByteErr()
	return b
}

// ReadByteErr is the error-returning form of ReadByte.
func (r *Reader) ReadByteErr() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// Peek returns the next n bytes without advancing the logical cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	if have := len(r.peek) - r.peekPos; have < n {
		need := n - have
		extra := make([]byte, need)
		read, err := io.ReadFull(r.source, extra)
		r.peek = append(r.peek[r.peekPos:], extra[:read]...)
		r.peekPos = 0
		if err != nil {
			return r.peek, err
		}
	}
	return r.peek[r.peekPos : r.peekPos+n], nil
}

// PeekShort peeks a little-endian uint16 without advancing the cursor.
func (r *Reader) PeekShort() (uint16, error) {
	b, err := r.Peek(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// PeekLong peeks a little-endian uint32 without advancing the cursor.
func (r *Reader) PeekLong() (uint32, error) {
	b, err := r.Peek(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Seek implements io.Seeker. Any buffered peek data is discarded: the caller
// is explicitly asking to move the logical cursor, so stale read-ahead must
// not leak into subsequent reads.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	r.peek = nil
	r.peekPos = 0

	pos, err := r.source.Seek(offset, whence)
	if err != nil {
		return pos, errors.Wrap(err, "seek failed")
	}
	return pos, nil
}

// Position reports the current logical offset (accounting for unconsumed peek bytes).
func (r *Reader) Position() (int64, error) {
	pos, err := r.source.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return pos - int64(len(r.peek)-r.peekPos), nil
}

func (r *Reader) compact() {
	if r.peekPos == len(r.peek) {
		r.peek = nil
		r.peekPos = 0
	}
}
