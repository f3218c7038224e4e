package packets

import (
	"encoding/binary"
	"io"
	"time"
	"unicode/utf16"

	"github.com/pkg/errors"

	"osrecover/arcserve"
	"osrecover/storage"
)

func init() {
	for _, sig := range []uint32{
		arcserve.SigFileHeaderWindowsNT,
		arcserve.SigFileHeaderWindowsNTWorkst,
		arcserve.SigFileHeaderWindows95,
	} {
		sig := sig
		arcserve.Register(sig, func() arcserve.Packet { return &windowsFileHeader{signature: sig} })
	}
}

// filetimeEpochOffset100ns is the number of 100-ns intervals between the
// FILETIME epoch (1601-01-01 UTC) and the Unix epoch.
const filetimeEpochOffset100ns = 116444736000000000

func filetimeToTime(ft int64) time.Time {
	if ft == 0 {
		return time.Unix(0, 0).UTC()
	}
	unixNanos := (ft - filetimeEpochOffset100ns) * 100
	return time.Unix(0, unixNanos).UTC()
}

// windowsFileHeader implements the NT/NT-workstation/Win95 dialects (spec
// section 4.5.4): shared prefix, then precise FILETIME fields, a precise
// size, and fixed-width UTF-16 name fields.
type windowsFileHeader struct {
	signature uint32

	prefix commonPrefix

	WindowsAttributes uint32
	CreationTime      time.Time
	AccessTime        time.Time
	WriteTime         time.Time
	PreciseSize       int64

	Filename    string
	DOSName     string
	FullPath    string

	valid bool
}

func (h *windowsFileHeader) Signature() uint32  { return h.signature }
func (h *windowsFileHeader) AppearsValid() bool { return h.valid }

func (h *windowsFileHeader) WriteInformation() string {
	return "file header (Windows): " + h.prefix.RelativePath
}

func readUTF16Field(r *storage.Reader, byteLen int) (string, error) {
	buf := make([]byte, byteLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	units := make([]uint16, byteLen/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}
	// Trim at the first NUL code unit.
	for i, u := range units {
		if u == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16.Decode(units)), nil
}

func (h *windowsFileHeader) LoadFromReader(r *storage.Reader) error {
	prefix, err := readCommonPrefix(r)
	if err != nil {
		return err
	}
	h.prefix = prefix

	if err := binary.Read(r, binary.LittleEndian, &h.WindowsAttributes); err != nil {
		return errors.Wrap(err, "windows file header: reading attributes")
	}

	var creationFT, accessFT, writeFT int64
	for _, f := range []*int64{&creationFT, &accessFT, &writeFT} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return errors.Wrap(err, "windows file header: reading FILETIME field")
		}
	}
	h.CreationTime = filetimeToTime(creationFT)
	h.AccessTime = filetimeToTime(accessFT)
	h.WriteTime = filetimeToTime(writeFT)

	var sizeHigh, sizeLow uint32
	if err := binary.Read(r, binary.LittleEndian, &sizeHigh); err != nil {
		return errors.Wrap(err, "windows file header: reading size high half")
	}
	if err := binary.Read(r, binary.LittleEndian, &sizeLow); err != nil {
		return errors.Wrap(err, "windows file header: reading size low half")
	}
	h.PreciseSize = int64(sizeHigh)<<32 | int64(sizeLow)

	var unknowns [8]byte
	if _, err := io.ReadFull(r, unknowns[:]); err != nil {
		return errors.Wrap(err, "windows file header: reading unknown fields")
	}

	filename, err := readUTF16Field(r, 520)
	if err != nil {
		return errors.Wrap(err, "windows file header: reading filename")
	}
	h.Filename = filename

	dosName, err := readUTF16Field(r, 28)
	if err != nil {
		return errors.Wrap(err, "windows file header: reading DOS 8.3 name")
	}
	h.DOSName = dosName

	fullPath, err := readUTF16Field(r, 1024)
	if err != nil {
		return errors.Wrap(err, "windows file header: reading full relative path")
	}
	h.FullPath = fullPath

	// Open Question (a): these 85 bytes are not fully understood; skip
	// verbatim rather than guess at their structure.
	var reserved [85]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		return errors.Wrap(err, "windows file header: reading reserved block")
	}

	h.valid = looksLikeText([]byte(h.prefix.RelativePath)) || h.prefix.RelativePath == ""
	return nil
}

// Process reads the skip_extra_section_per_file padding (Open Question b),
// then copies PreciseSize raw bytes into the archive entry.
func (h *windowsFileHeader) Process(ctx *arcserve.Context) error {
	if ctx.SkipExtraSectionPerFile {
		var extra [512]byte
		if _, err := io.ReadFull(ctx.Reader, extra[:]); err != nil {
			return errors.Wrap(err, "windows file header: reading extra per-file section")
		}
	}

	relativePath := h.FullPath
	if relativePath == "" {
		relativePath = h.prefix.RelativePath
	}
	isDir := h.prefix.isDirectoryByAttributes()

	return writeFileEntry(ctx, relativePath, isDir, h.WriteTime, h.PreciseSize, func(w io.Writer) error {
		if isDir {
			return nil
		}
		n, err := io.CopyN(w, ctx.Reader, h.PreciseSize)
		if err != nil {
			return errors.Wrapf(err, "short read inside Windows file body: got %d of %d bytes", n, h.PreciseSize)
		}
		return nil
	})
}
