package packets

import (
	"io"

	"github.com/pkg/errors"

	"osrecover/arcserve"
	"osrecover/storage"
)

func init() {
	// AFP, OS/2, Unix, and Mac dialects are registered against the same
	// DOS-shaped reader: spec section 4.5 names a body format only for
	// DOS, Windows, and the universal dialect. The other four signatures
	// carry the identical shared prefix and declare a plain byte-run body
	// with no dialect-specific trailer, so they share dosFileHeader's
	// implementation rather than duplicating it four times.
	for _, sig := range []uint32{
		arcserve.SigFileHeaderDOS,
		arcserve.SigFileHeaderAFP,
		arcserve.SigFileHeaderOS2,
		arcserve.SigFileHeaderUnix,
		arcserve.SigFileHeaderMac,
	} {
		sig := sig
		arcserve.Register(sig, func() arcserve.Packet { return &dosFileHeader{signature: sig} })
	}
}

// dosScratchBufferSize is the fixed copy buffer spec section 4.5.3
// specifies for the DOS dialect's raw byte-run body.
const dosScratchBufferSize = 2048

// dosFileHeader implements the simple dialects whose body is a raw byte run
// of exactly commonPrefix.FileSize bytes.
type dosFileHeader struct {
	signature uint32
	prefix    commonPrefix
	valid     bool
}

func (h *dosFileHeader) Signature() uint32  { return h.signature }
func (h *dosFileHeader) AppearsValid() bool { return h.valid }

func (h *dosFileHeader) WriteInformation() string {
	return "file header (DOS-family): " + h.prefix.RelativePath
}

func (h *dosFileHeader) LoadFromReader(r *storage.Reader) error {
	prefix, err := readCommonPrefix(r)
	if err != nil {
		return err
	}
	h.prefix = prefix
	h.valid = looksLikeText([]byte(prefix.RelativePath)) || prefix.RelativePath == ""
	return nil
}

func (h *dosFileHeader) Process(ctx *arcserve.Context) error {
	isDir := h.prefix.isDirectoryByAttributes()

	return writeFileEntry(ctx, h.prefix.RelativePath, isDir, h.prefix.LastModified, int64(h.prefix.FileSize), func(w io.Writer) error {
		if isDir {
			return nil
		}
		buf := make([]byte, dosScratchBufferSize)
		n, err := io.CopyBuffer(w, io.LimitReader(ctx.Reader, int64(h.prefix.FileSize)), buf)
		if err != nil {
			return errors.Wrap(err, "short read inside DOS-family file body")
		}
		if n != int64(h.prefix.FileSize) {
			return errors.Errorf("short read inside DOS-family file body: got %d of %d bytes", n, h.prefix.FileSize)
		}
		return nil
	})
}
