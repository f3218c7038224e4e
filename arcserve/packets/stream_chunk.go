package packets

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"osrecover/storage"
)

// Chunk type/id constants (spec section 4.5.5).
const (
	chunkWindowsFilename uint32 = 0x2110DAAD
	chunkDOSPath         uint32 = 0x1800DADA
	chunkFullPath        uint32 = 0x1900DADA
	chunkRawData         uint32 = 0x0100DAAD
	chunkCatalogData     uint32 = 0x3010DAAD
	chunkEndOfStream      uint32 = 0x00000000

	outerTypeFile      uint32 = 0x3000DADA
	outerTypeDirectory uint32 = 0x3100DADA
)

const chunkCompressedFlagBit = 1 << 6

// chunkHeader is the 30-byte header preceding every universal-dialect
// stream chunk. The six named fields (4+4+8+4+4+4 = 28 bytes) are two
// bytes short of the declared 30; a 2-byte reserved pad closes the gap,
// matching the framing's declared size exactly rather than guessing at a
// seventh field.
type chunkHeader struct {
	ID         uint32
	Filesystem uint32
	Size       uint64
	NameSize   uint32
	Type       uint32
	Flags      uint32
}

func readChunkHeader(r *storage.Reader) (chunkHeader, string, error) {
	var h chunkHeader

	if err := binary.Read(r, binary.BigEndian, &h.ID); err != nil {
		return h, "", errors.Wrap(err, "stream chunk: reading id")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Filesystem); err != nil {
		return h, "", errors.Wrap(err, "stream chunk: reading filesystem")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Size); err != nil {
		return h, "", errors.Wrap(err, "stream chunk: reading size")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.NameSize); err != nil {
		return h, "", errors.Wrap(err, "stream chunk: reading name size")
	}
	if err := binary.Read(r, binary.BigEndian, &h.Type); err != nil {
		return h, "", errors.Wrap(err, "stream chunk: reading type")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Flags); err != nil {
		return h, "", errors.Wrap(err, "stream chunk: reading flags")
	}

	var reserved [2]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		return h, "", errors.Wrap(err, "stream chunk: reading reserved pad")
	}

	var name string
	if h.NameSize > 0 {
		nameBuf := make([]byte, h.NameSize)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return h, "", errors.Wrap(err, "stream chunk: reading name")
		}
		name = trimNulString(nameBuf[:h.NameSize-1])
	}

	return h, name, nil
}

// alignTo3Mod4 advances the reader so the following read starts at a
// position congruent to 3 mod 4, the framing alignment spec section 4.5.5
// and the design notes (§9 "Alignment") require inside universal stream
// chunks. This is distinct from, and nested inside, the outer 512-byte
// root sector alignment.
func alignTo3Mod4(r *storage.Reader) error {
	pos, err := r.Position()
	if err != nil {
		return err
	}
	rem := pos % 4
	advance := (3 - rem) % 4
	if advance == 0 {
		return nil
	}
	_, err = r.Seek(advance, io.SeekCurrent)
	return err
}

// readRawOrCatalogBody copies a raw/catalog chunk's usable bytes into w,
// inflating with the fixed DEFLATE decoder when the compressed flag is set.
// Returns the number of bytes written.
func readRawOrCatalogBody(r *storage.Reader, h chunkHeader, w io.Writer) (int64, error) {
	if h.Flags&chunkCompressedFlagBit == 0 {
		n, err := io.CopyN(w, r, int64(h.Size))
		if err != nil {
			return n, errors.Wrap(err, "reading uncompressed chunk body")
		}
		return n, nil
	}

	var expected uint32
	if err := binary.Read(r, binary.LittleEndian, &expected); err != nil {
		return 0, errors.Wrap(err, "reading expected uncompressed size")
	}

	compressedLen := int64(h.Size) - 4
	if compressedLen < 0 {
		return 0, errors.New("compressed chunk declares negative body length")
	}

	fr := flate.NewReader(io.LimitReader(r, compressedLen))
	defer fr.Close()

	n, err := io.Copy(w, fr)
	if err != nil {
		return n, errors.Wrap(err, "inflating compressed chunk body")
	}
	if uint32(n) != expected {
		// Logged by the caller as a warning, not treated as fatal here
		// (spec section 4.5.5: "uncompressed length mismatches are
		// logged as warnings, not errors").
		return n, errUncompressedSizeMismatch{got: uint32(n), want: expected}
	}
	return n, nil
}

type errUncompressedSizeMismatch struct {
	got, want uint32
}

func (e errUncompressedSizeMismatch) Error() string {
	return "uncompressed size mismatch"
}
