package packets

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"osrecover/arcserve"
	"osrecover/storage"
)

func init() {
	arcserve.Register(arcserve.SigFileHeaderUniversal, func() arcserve.Packet {
		return &universalFileHeader{signature: arcserve.SigFileHeaderUniversal}
	})
}

// parsedChunk is a non-raw chunk retained for post-hoc diagnostics, per the
// design note that malformed chunk streams should still surface whatever
// metadata was recovered.
type parsedChunk struct {
	header chunkHeader
	name   string
}

// universalFileHeader implements the universal dialect (spec section
// 4.5.5): shared prefix followed by a sequence of typed stream chunks.
type universalFileHeader struct {
	signature uint32

	prefix commonPrefix
	chunks []parsedChunk

	valid bool
}

func (h *universalFileHeader) Signature() uint32  { return h.signature }
func (h *universalFileHeader) AppearsValid() bool { return h.valid }

func (h *universalFileHeader) WriteInformation() string {
	return "file header (universal): " + h.prefix.RelativePath
}

// LoadFromReader reads only the shared prefix; stream chunks are consumed
// lazily during Process since they may include a large raw-data payload
// that should stream straight into the archive rather than buffer in
// memory.
func (h *universalFileHeader) LoadFromReader(r *storage.Reader) error {
	prefix, err := readCommonPrefix(r)
	if err != nil {
		return err
	}
	h.prefix = prefix
	h.valid = looksLikeText([]byte(h.prefix.RelativePath)) || h.prefix.RelativePath == ""
	return nil
}

// Process iterates the file's stream chunks until an end-of-stream chunk.
// Filename/full-path metadata chunks are expected before any raw-data
// chunk (the layout every sample universal-dialect file in the design
// notes follows); the archive entry is opened lazily, on the first chunk
// that actually needs a destination (a raw/catalog chunk, or end-of-stream
// with none seen), so a full-path override or inner-stream directory flag
// discovered in an earlier chunk is already folded into the path and
// entry kind by the time BeginFile/BeginDirectory is called.
func (h *universalFileHeader) Process(ctx *arcserve.Context) error {
	relativePath := h.prefix.RelativePath
	isDir := h.prefix.isDirectoryByAttributes()

	var (
		opened       bool
		writer       io.Writer
		declaredSize int64 = -1
	)

	open := func() error {
		if opened {
			return nil
		}
		opened = true
		if isDir {
			return ctx.Archive.BeginDirectory(joinBasePath(*ctx.CurrentBasePath, relativePath) + "\\")
		}
		modTime := h.prefix.LastModified
		if modTime.Equal(time.Unix(0, 0).UTC()) {
			modTime = time.Time{}
		}
		w, err := ctx.Archive.BeginFile(joinBasePath(*ctx.CurrentBasePath, relativePath), modTime)
		if err != nil {
			return errors.Wrapf(err, "beginning archive entry %q", relativePath)
		}
		writer = w
		return nil
	}

	for {
		hdr, name, err := readChunkHeader(ctx.Reader)
		if err != nil {
			return err
		}

		switch hdr.ID {
		case chunkEndOfStream:
			if err := alignTo3Mod4(ctx.Reader); err != nil {
				return err
			}
			if err := open(); err != nil {
				return err
			}
			if writer == nil {
				return nil
			}
			fullPath := joinBasePath(*ctx.CurrentBasePath, relativePath)
			written, err := ctx.Archive.EndFile()
			if err != nil {
				return errors.Wrapf(err, "closing archive entry %q", fullPath)
			}
			if !ctx.FastDebug && declaredSize >= 0 && written != declaredSize {
				ctx.Archive.LogIntegrityWarning("file %q: declared size %d, wrote %d bytes", fullPath, declaredSize, written)
			}
			return nil

		case chunkWindowsFilename, chunkDOSPath:
			if opened {
				ctx.Archive.LogIntegrityWarning("%s: filename chunk arrived after data, ignored", h.prefix.RelativePath)
				if err := skipChunkBody(ctx.Reader, hdr); err != nil {
					return err
				}
				continue
			}
			var reserved [44]byte
			if _, err := io.ReadFull(ctx.Reader, reserved[:]); err != nil {
				return errors.Wrap(err, "reading windows-filename chunk reserved block")
			}
			if _, err := readUTF16Field(ctx.Reader, 520); err != nil {
				return errors.Wrap(err, "reading windows-filename chunk name")
			}
			if _, err := readUTF16Field(ctx.Reader, 28); err != nil {
				return errors.Wrap(err, "reading windows-filename chunk DOS name")
			}
			if err := alignTo3Mod4(ctx.Reader); err != nil {
				return err
			}
			h.chunks = append(h.chunks, parsedChunk{header: hdr, name: name})
			switch hdr.Type {
			case outerTypeDirectory:
				isDir = true
			case outerTypeFile:
				isDir = false
			}

		case chunkFullPath:
			full, err := readUTF16Field(ctx.Reader, 1024)
			if err != nil {
				return errors.Wrap(err, "reading full-path chunk")
			}
			if err := alignTo3Mod4(ctx.Reader); err != nil {
				return err
			}
			if opened {
				ctx.Archive.LogIntegrityWarning("%s: full-path chunk arrived after data, ignored", h.prefix.RelativePath)
				h.chunks = append(h.chunks, parsedChunk{header: hdr, name: name})
				continue
			}
			if full != "" {
				relativePath = full
			}
			h.chunks = append(h.chunks, parsedChunk{header: hdr, name: name})

		case chunkRawData, chunkCatalogData:
			if err := open(); err != nil {
				return err
			}
			if declaredSize < 0 {
				declaredSize = 0
			}
			declaredSize += int64(hdr.Size)
			n, err := readRawOrCatalogBody(ctx.Reader, hdr, writer)
			if err != nil {
				if _, mismatch := err.(errUncompressedSizeMismatch); mismatch {
					ctx.Archive.LogIntegrityWarning("%s: %v", h.prefix.RelativePath, err)
				} else {
					return err
				}
			}
			_ = n
			if err := alignTo3Mod4(ctx.Reader); err != nil {
				return err
			}

		default:
			h.chunks = append(h.chunks, parsedChunk{header: hdr, name: name})
			if err := skipChunkBody(ctx.Reader, hdr); err != nil {
				return err
			}
		}
	}
}

func skipChunkBody(r *storage.Reader, hdr chunkHeader) error {
	if _, err := io.CopyN(io.Discard, r, int64(hdr.Size)); err != nil {
		return errors.Wrap(err, "skipping unsupported chunk body")
	}
	return alignTo3Mod4(r)
}
