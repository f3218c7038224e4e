// Package stream implements the interwoven reader: a seekable, read-only
// byte stream over the dump-file payloads identified by the block map, in
// the cartridge's logical order.
//
// Grounded on storage.Reader's own "buffer one unit, track a cursor, reload
// on exhaustion" model, generalised from a single file to many dump files
// opened lazily and kept open across reads.
package stream

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"

	"osrecover/tape"
	"osrecover/tape/scan"
)

// ErrNotSupported is returned for operations the interwoven reader
// deliberately does not offer (seeking from the end of the stream, writes).
var ErrNotSupported = errors.New("stream: operation not supported")

// entry pairs one physical block's locator with its position in the full
// logical ordering, so gaps against blocks the scanner never attributed can
// be detected by comparing index deltas against logical-value deltas.
type entry struct {
	logical int
	locator scan.Locator
}

// Stream is the interwoven reader.
type Stream struct {
	entries []entry

	files map[string]*os.File

	loadedIndex int // index into entries of the block currently buffered, -1 if none
	buf         [scan.PayloadSize]byte
	cursor      int // byte offset within buf already delivered to the caller
}

// New builds a Stream from a completed block map, in the cartridge's logical
// order. Only physical blocks the scanner actually attributed appear in the
// stream; anything else is a gap, reported via WasMissingDataSkipped.
func New(c tape.Cartridge, blocks map[tape.Position]scan.Locator) *Stream {
	s := &Stream{
		files:       make(map[string]*os.File),
		loadedIndex: -1,
	}

	max := c.MaxLogical()
	for l := 0; l < max; l++ {
		p, err := c.LogicalToPhysical(l)
		if err != nil {
			continue
		}
		if loc, ok := blocks[p]; ok {
			s.entries = append(s.entries, entry{logical: l, locator: loc})
		}
	}

	return s
}

// Len reports the total stream length in bytes.
func (s *Stream) Len() int64 {
	return int64(len(s.entries)) * scan.PayloadSize
}

// Count reports the total number of blocks in the stream.
func (s *Stream) Count() int {
	return len(s.entries)
}

// CurrentBlock returns the locator for the block currently buffered, or the
// zero Locator if nothing has been read yet.
func (s *Stream) CurrentBlock() scan.Locator {
	if s.loadedIndex < 0 || s.loadedIndex >= len(s.entries) {
		return scan.Locator{}
	}
	return s.entries[s.loadedIndex].locator
}

// BlocksConsumed returns the index, within the stream's list of attributed
// blocks (not the logical block number), of the block most recently
// loaded, or 0 before the first load; callers snapshot this value to later pass as
// WasMissingDataSkipped's since argument.
func (s *Stream) BlocksConsumed() int {
	if s.loadedIndex < 0 {
		return 0
	}
	return s.loadedIndex
}

// WasMissingDataSkipped compares the logical distance covered between the
// entry index `since` and the current entry against the number of entries
// actually consumed in between; any excess is physical blocks that were
// never attributed by the scanner (a gap).
func (s *Stream) WasMissingDataSkipped(since int) (blocksSkipped int, lastValidBlock tape.Position) {
	if since < 0 || since >= len(s.entries) || s.loadedIndex < 0 || s.loadedIndex >= len(s.entries) {
		return 0, tape.Position{}
	}

	indexDelta := s.loadedIndex - since
	logicalDelta := s.entries[s.loadedIndex].logical - s.entries[since].logical

	skipped := logicalDelta - indexDelta
	if skipped < 0 {
		skipped = 0
	}
	return skipped, s.entries[since].locator.Physical
}

// Read implements io.Reader.
func (s *Stream) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if s.loadedIndex >= len(s.entries)-1 && s.cursor >= scan.PayloadSize {
			if total > 0 {
				return total, nil
			}
			return 0, io.EOF
		}
		if s.loadedIndex < 0 || s.cursor >= scan.PayloadSize {
			if err := s.loadNext(); err != nil {
				if total > 0 {
					return total, nil
				}
				return 0, err
			}
		}

		n := copy(p[total:], s.buf[s.cursor:])
		s.cursor += n
		total += n
	}
	return total, nil
}

func (s *Stream) loadNext() error {
	next := s.loadedIndex + 1
	if next >= len(s.entries) {
		return io.EOF
	}

	loc := s.entries[next].locator
	f, err := s.fileFor(loc.File)
	if err != nil {
		return errors.Wrapf(err, "opening dump file %q", loc.File)
	}

	if _, err := f.Seek(loc.Offset, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seeking dump file %q", loc.File)
	}
	if _, err := io.ReadFull(f, s.buf[:]); err != nil {
		return errors.Wrapf(err, "reading payload from %q at offset %d", loc.File, loc.Offset)
	}

	s.loadedIndex = next
	s.cursor = 0
	return nil
}

func (s *Stream) fileFor(path string) (*os.File, error) {
	if f, ok := s.files[path]; ok {
		return f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s.files[path] = f
	return f, nil
}

// Close releases every dump file the stream has opened.
func (s *Stream) Close() error {
	var firstErr error
	for _, f := range s.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Seek implements io.Seeker. Seeking from the end is not supported and
// returns ErrNotSupported; targets are clamped to [0, Len()].
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.position() + offset
	case io.SeekEnd:
		return 0, ErrNotSupported
	default:
		return 0, ErrNotSupported
	}

	if target < 0 {
		target = 0
	}
	max := s.Len()
	if target > max {
		target = max
	}

	blockIndex := int(target / scan.PayloadSize)
	within := int(target % scan.PayloadSize)

	if blockIndex >= len(s.entries) {
		s.loadedIndex = len(s.entries) - 1
		s.cursor = scan.PayloadSize
		return target, nil
	}

	if blockIndex != s.loadedIndex {
		loc := s.entries[blockIndex].locator
		f, err := s.fileFor(loc.File)
		if err != nil {
			return 0, errors.Wrap(err, "opening dump file")
		}
		if _, err := f.Seek(loc.Offset, io.SeekStart); err != nil {
			return 0, errors.Wrap(err, "seeking dump file")
		}
		if _, err := io.ReadFull(f, s.buf[:]); err != nil && err != io.EOF {
			return 0, errors.Wrap(err, "reading payload")
		}
		s.loadedIndex = blockIndex
	}
	s.cursor = within

	return target, nil
}

func (s *Stream) position() int64 {
	if s.loadedIndex < 0 {
		return 0
	}
	return int64(s.loadedIndex)*scan.PayloadSize + int64(s.cursor)
}

// ContentsAt returns a reader limited to the bytes in [offset, offset+n).
// It seeks the stream to offset and leaves it positioned after the bytes read.
func (s *Stream) ContentsAt(offset int64, n int) (*bytes.Reader, error) {
	if _, err := s.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s, buf); err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}
