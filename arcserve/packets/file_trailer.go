package packets

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"osrecover/arcserve"
	"osrecover/storage"
)

func init() {
	arcserve.Register(arcserve.SigFileTrailer, func() arcserve.Packet { return &FileTrailer{} })
}

// FileTrailer is the spec section 4.5.6 end-of-file marker: no side
// effects beyond logging, but it carries the writer's claimed CRC32.
type FileTrailer struct {
	RelativePath string
	CRC32        uint32
	Reserved     uint8

	valid bool
}

func (t *FileTrailer) Signature() uint32  { return arcserve.SigFileTrailer }
func (t *FileTrailer) AppearsValid() bool { return t.valid }

func (t *FileTrailer) WriteInformation() string {
	return fmt.Sprintf("file trailer: %q crc=%08x", t.RelativePath, t.CRC32)
}

func (t *FileTrailer) LoadFromReader(r *storage.Reader) error {
	path := make([]byte, 246)
	if _, err := io.ReadFull(r, path); err != nil {
		return errors.Wrap(err, "file trailer: reading relative path")
	}
	t.RelativePath = trimNulString(path)

	if err := binary.Read(r, binary.LittleEndian, &t.CRC32); err != nil {
		return errors.Wrap(err, "file trailer: reading crc32")
	}

	t.Reserved = r.ReadByte()

	var zero [257]byte
	if _, err := io.ReadFull(r, zero[:]); err != nil {
		return errors.Wrap(err, "file trailer: reading trailer padding")
	}

	// Open Question (c): the CRC32 polynomial is undocumented; it is
	// carried through for informational logging only and never used to
	// reject a recovered file.
	t.valid = (t.RelativePath == "" && t.CRC32 == 0 && t.Reserved == 0) || looksLikeText(path)
	return nil
}

func (t *FileTrailer) Process(ctx *arcserve.Context) error {
	ctx.Log.Debugw("file trailer", "path", t.RelativePath, "crc32", t.CRC32)
	return nil
}
