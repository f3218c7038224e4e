// Package scan reads raw tape dump files and builds the block map: the
// mapping from physical block identity to where its payload lives in which
// dump file. It never interprets payload bytes.
//
// Grounded on the teacher's amstrad/dsk/amsdos.go readDirectories: stream
// fixed-size records with binary.Read into a struct, accumulate into a
// collection, treat out-of-range/invalid entries specially rather than
// failing the whole read.
package scan

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"osrecover/tape"
)

const (
	// PayloadSize is the size, in bytes, of one dump record's data payload.
	PayloadSize = 32768
	// AuxSize is the size, in bytes, of one dump record's auxiliary area.
	AuxSize = 512
	// RecordSize is the full on-disk size of one dump record when
	// auxiliary data is present.
	RecordSize = PayloadSize + AuxSize

	auxMagicOffset   = 0
	auxAddressOffset = 4

	// writeStopMagic marks the point past which a dump file holds only
	// write-stop padding.
	writeStopMagic = "WTST"
)

// Entry describes one dump file to scan, matching the tape definition's
// shape (spec section 6): a path, an optional starting logical block hint
// used to recover addresses the drive failed to tag, and a set of logical
// blocks known in advance to be bad.
type Entry struct {
	Path         string
	StartHint    *int
	KnownBadLogical map[int]struct{}
}

// Locator records where one physical block's payload lives.
type Locator struct {
	Physical tape.Position
	File     string
	Offset   int64 // byte offset of the payload (not the aux area) in File
}

// Scanner builds the block map from a list of dump file entries.
type Scanner struct {
	Cartridge tape.Cartridge
	HasAux    bool

	onWarning func(format string, args ...interface{})
}

// New constructs a Scanner for the given cartridge geometry. onWarning may be
// nil, in which case warnings are discarded.
func New(c tape.Cartridge, hasAux bool, onWarning func(string, ...interface{})) *Scanner {
	if onWarning == nil {
		onWarning = func(string, ...interface{}) {}
	}
	return &Scanner{Cartridge: c, HasAux: hasAux, onWarning: onWarning}
}

// Result is the output of a full scan: the completed block map. Callers
// that need to know which physical blocks no dump file claimed use
// tape/damage.FindGaps against this map.
type Result struct {
	Blocks map[tape.Position]Locator
}

// Scan reads every entry in order and returns the completed block map.
func (s *Scanner) Scan(entries []Entry) (*Result, error) {
	result := &Result{Blocks: make(map[tape.Position]Locator)}

	for _, entry := range entries {
		if err := s.scanEntry(entry, result); err != nil {
			return nil, errors.Wrapf(err, "scanning dump file %q", entry.Path)
		}
	}

	return result, nil
}

func (s *Scanner) scanEntry(entry Entry, result *Result) error {
	f, err := os.Open(entry.Path)
	if err != nil {
		return errors.Wrap(err, "opening dump file")
	}
	defer f.Close()

	recordSize := RecordSize
	if !s.HasAux {
		recordSize = PayloadSize
	}

	var logicalCursor int
	if entry.StartHint != nil {
		logicalCursor = *entry.StartHint
	}

	stopped := false

	buf := make([]byte, recordSize)
	var offset int64

	for {
		n, err := io.ReadFull(f, buf)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			// Tolerate a dump file that is short by less than one record:
			// ignore the trailing partial record.
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading dump record")
		}
		_ = n

		payloadOffset := offset

		var addr uint32
		var isWriteStop bool

		if s.HasAux {
			aux := buf[PayloadSize:]
			if string(aux[auxMagicOffset:auxMagicOffset+4]) == writeStopMagic {
				isWriteStop = true
			} else {
				addr = binary.BigEndian.Uint32(aux[auxAddressOffset : auxAddressOffset+4])
			}
		}

		offset += int64(recordSize)

		if isWriteStop {
			stopped = true
			s.advanceCursor(&logicalCursor, entry)
			continue
		}
		if stopped {
			// Past the write-stop marker there is nothing further to attribute.
			continue
		}

		var physical tape.Position
		switch {
		case !s.HasAux:
			// No auxiliary data: addresses are synthesised purely from the
			// starting hint and the entry's skip list.
			p, ok := s.synthesize(entry, logicalCursor)
			if !ok {
				s.onWarning("no starting hint for %s at local offset %d, skipping", entry.Path, payloadOffset)
				s.advanceCursor(&logicalCursor, entry)
				continue
			}
			physical = p
		case addr == 0 || addr == 0xFFFFFFFF:
			if entry.StartHint == nil {
				s.onWarning("invalid physical address in %s at local offset %d, no starting hint, skipping", entry.Path, payloadOffset)
				s.advanceCursor(&logicalCursor, entry)
				continue
			}
			p, ok := s.synthesize(entry, logicalCursor)
			if !ok {
				s.advanceCursor(&logicalCursor, entry)
				continue
			}
			physical = p
		default:
			p, err := s.Cartridge.LogicalToPhysical(int(addr))
			if err != nil {
				s.onWarning("physical address %d in %s at local offset %d does not decode: %v", addr, entry.Path, payloadOffset, err)
				s.advanceCursor(&logicalCursor, entry)
				continue
			}
			physical = p
		}

		if existing, ok := result.Blocks[physical]; ok {
			s.onWarning("physical block %v already owned by %s@%d, overwriting with %s@%d", physical, existing.File, existing.Offset, entry.Path, payloadOffset)
		}

		result.Blocks[physical] = Locator{Physical: physical, File: entry.Path, Offset: payloadOffset}

		s.advanceCursor(&logicalCursor, entry)
	}

	return nil
}

// synthesize derives a physical address from the current logical cursor
// position, used when the aux data's own address is missing or invalid but
// the entry carries a starting hint.
func (s *Scanner) synthesize(entry Entry, logicalCursor int) (tape.Position, bool) {
	if entry.StartHint == nil {
		return tape.Position{}, false
	}
	if logicalCursor < 0 || logicalCursor >= s.Cartridge.MaxLogical() {
		return tape.Position{}, false
	}
	p, err := s.Cartridge.LogicalToPhysical(logicalCursor)
	if err != nil {
		return tape.Position{}, false
	}
	return p, true
}

// advanceCursor increments the scanner's running logical position, skipping
// over any logical blocks the tape definition has listed as known-bad for
// this entry so attribution does not drift once a bad block is crossed.
func (s *Scanner) advanceCursor(cursor *int, entry Entry) {
	*cursor++
	for entry.KnownBadLogical != nil {
		if _, bad := entry.KnownBadLogical[*cursor]; !bad {
			break
		}
		*cursor++
	}
}
