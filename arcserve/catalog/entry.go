// Package catalog reads ARCserve ".CAT" catalog sessions and cross-checks
// their entries against a produced archive.
//
// Grounded on the teacher's amsdos/cat.CommandCat: read a flat sequence of
// fixed-shape directory records, merge/derive display fields, sort, and
// report — generalised here to the 4.5.8 catalog entry layout and a
// recovered-vs-missing report instead of a directory listing.
package catalog

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const entrySignatureByte = 0xFF

// Entry is one parsed catalog record (spec section 4.5.8).
type Entry struct {
	Filesystem uint8
	Mode       uint8
	OwnerID    uint32
	Attributes uint32
	Size       int64
	ModTime    uint32 // packed timestamp, left undecoded here: callers already have UnpackTimestamp
	PageIndex  uint32
	PageOffset uint32
	Flags      uint8

	FullPath string
	Filename string
	Folder   string
}

// IsFile reports whether flags bit 0 is set.
func (e Entry) IsFile() bool { return e.Flags&0x01 != 0 }

// ReadEntry reads one catalog entry from r. It returns io.EOF once no
// further 0xFF signature byte is found (i.e. the catalog session's entry
// list has ended, usually followed by a session terminator).
func ReadEntry(r io.Reader) (Entry, error) {
	var e Entry

	var sig [1]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return e, err
	}
	if sig[0] != entrySignatureByte {
		return e, io.EOF
	}

	var entrySize uint8
	if err := binary.Read(r, binary.LittleEndian, &entrySize); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading entry size")
	}
	consumed := 2 // signature + size byte

	readU8 := func(dst *uint8) error {
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*dst = b[0]
		consumed++
		return nil
	}
	readU32 := func(dst *uint32) error {
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*dst = binary.LittleEndian.Uint32(b[:])
		consumed += 4
		return nil
	}
	readU16 := func(dst *uint16) error {
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return err
		}
		*dst = binary.LittleEndian.Uint16(b[:])
		consumed += 2
		return nil
	}

	if err := readU8(&e.Filesystem); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading filesystem")
	}
	if err := readU8(&e.Mode); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading mode")
	}
	if err := readU32(&e.OwnerID); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading owner id")
	}
	if err := readU32(&e.Attributes); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading attributes")
	}

	var sizeHigh, sizeLow uint32
	if err := readU32(&sizeHigh); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading size high half")
	}
	if err := readU32(&sizeLow); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading size low half")
	}
	e.Size = int64(sizeHigh)<<32 | int64(sizeLow)

	if err := readU32(&e.ModTime); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading mtime")
	}
	if err := readU32(&e.PageIndex); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading page index")
	}
	if err := readU32(&e.PageOffset); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading page offset")
	}

	var filenameLength, fullPathLength uint16
	if err := readU16(&filenameLength); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading filename length")
	}
	if err := readU16(&fullPathLength); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading full-path length")
	}

	if err := readU8(&e.Flags); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading flags")
	}

	var reserved [3]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		return e, errors.Wrap(err, "catalog entry: reading reserved bytes")
	}
	consumed += 3

	var fullPath string
	if fullPathLength > 0 {
		body := make([]byte, int(fullPathLength)-1)
		if _, err := io.ReadFull(r, body); err != nil {
			return e, errors.Wrap(err, "catalog entry: reading full path")
		}
		var term [1]byte
		if _, err := io.ReadFull(r, term[:]); err != nil {
			return e, errors.Wrap(err, "catalog entry: reading path terminator")
		}
		fullPath = string(body)
		consumed += int(fullPathLength) - 1 + 1
	}
	e.FullPath = fullPath

	if filenameLength > 0 && int(filenameLength)-1 <= len(fullPath) {
		split := len(fullPath) - (int(filenameLength) - 1)
		e.Filename = fullPath[split:]
		e.Folder = fullPath[:split]
	} else {
		e.Filename = ""
		e.Folder = fullPath
	}

	if consumed != int(entrySize) {
		return e, errors.Errorf("catalog entry %q: declared size %d, consumed %d bytes", fullPath, entrySize, consumed)
	}

	return e, nil
}

// ReadAll reads entries until EOF or a non-entry signature byte is hit.
func ReadAll(r io.Reader) ([]Entry, error) {
	var entries []Entry
	for {
		e, err := ReadEntry(r)
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}
