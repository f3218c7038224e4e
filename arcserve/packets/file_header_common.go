package packets

import (
	"encoding/binary"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"osrecover/arcserve"
	"osrecover/storage"
)

// FileClass enumerates the file-header "file class" byte; unrecognised
// values are preserved rather than normalised (Open Question d's sibling
// policy extended to this enum).
type FileClass uint8

const (
	FileClassNormal FileClass = iota
	FileClassNTRegistry
	FileClassEventLog
	FileClassHardLink1
	FileClassHardLink2
	FileClassCatalog
	FileClassEISA
	FileClassDriveRoot
)

// commonPrefix is the shared 4.5.2 field block every file-header dialect
// begins with.
type commonPrefix struct {
	RelativePath string
	AFPLongName  string
	DirLevel     uint8

	LastModified time.Time
	FileSize     uint32

	ResourceForkSize uint32
	Attributes       uint32
	OwnerID          uint32
	Mask             uint16
	FileClass        FileClass

	TrusteeLength           uint32
	DirSpaceRestriction     uint32
	LastAccessDate          time.Time
	CreationTime            time.Time
}

const attrDirectory = 0x10

func (p commonPrefix) isDirectoryByAttributes() bool {
	return p.Attributes&attrDirectory != 0
}

// readCommonPrefix reads the dialect-shared prefix described in spec
// section 4.5.2.
func readCommonPrefix(r *storage.Reader) (commonPrefix, error) {
	var p commonPrefix

	relPath := make([]byte, 250)
	if _, err := io.ReadFull(r, relPath); err != nil {
		return p, errors.Wrap(err, "file header: reading relative path")
	}
	p.RelativePath = trimNulString(relPath)

	afpName := make([]byte, 33)
	if _, err := io.ReadFull(r, afpName); err != nil {
		return p, errors.Wrap(err, "file header: reading AFP long name")
	}
	p.AFPLongName = trimNulString(afpName)

	p.DirLevel = r.ReadByte()

	var lastModified uint32
	if err := binary.Read(r, binary.BigEndian, &lastModified); err != nil {
		return p, errors.Wrap(err, "file header: reading last-modified time")
	}
	p.LastModified = UnpackTimestamp(lastModified, 1980)

	if err := binary.Read(r, binary.LittleEndian, &p.FileSize); err != nil {
		return p, errors.Wrap(err, "file header: reading file size")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.ResourceForkSize); err != nil {
		return p, errors.Wrap(err, "file header: reading resource fork size")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.Attributes); err != nil {
		return p, errors.Wrap(err, "file header: reading attributes")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.OwnerID); err != nil {
		return p, errors.Wrap(err, "file header: reading owner id")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.Mask); err != nil {
		return p, errors.Wrap(err, "file header: reading mask")
	}
	p.FileClass = FileClass(r.ReadByte())

	if err := binary.Read(r, binary.LittleEndian, &p.TrusteeLength); err != nil {
		return p, errors.Wrap(err, "file header: reading trustee length")
	}
	if err := binary.Read(r, binary.LittleEndian, &p.DirSpaceRestriction); err != nil {
		return p, errors.Wrap(err, "file header: reading directory-space restriction")
	}

	var lastAccess uint16
	if err := binary.Read(r, binary.LittleEndian, &lastAccess); err != nil {
		return p, errors.Wrap(err, "file header: reading last-access date")
	}
	p.LastAccessDate = UnpackDOSDate(lastAccess)

	var creation uint32
	if err := binary.Read(r, binary.LittleEndian, &creation); err != nil {
		return p, errors.Wrap(err, "file header: reading creation time")
	}
	p.CreationTime = UnpackTimestamp(creation, 1980)

	var reserved [22]byte
	if _, err := io.ReadFull(r, reserved[:]); err != nil {
		return p, errors.Wrap(err, "file header: reading reserved trailer")
	}

	return p, nil
}

// joinBasePath applies the base-path separator policy from spec section
// 4.5.2: don't double up a trailing separator, otherwise insert one.
func joinBasePath(base, relative string) string {
	if base == "" {
		return relative
	}
	if strings.HasSuffix(base, "\\") || strings.HasSuffix(base, "/") {
		return base + relative
	}
	return base + "\\" + relative
}

// writeFileEntry creates the ZIP entry for a file or directory header and
// runs writeBody against it, then checks the declared size against the
// actual bytes written (spec section 4.5.2's processing rule).
func writeFileEntry(ctx *arcserve.Context, relativePath string, isDirectory bool, modTime time.Time, declaredSize int64, writeBody func(io.Writer) error) error {
	fullPath := joinBasePath(*ctx.CurrentBasePath, relativePath)

	if isDirectory {
		return ctx.Archive.BeginDirectory(fullPath + "\\")
	}

	entryModTime := modTime
	if entryModTime.Equal(time.Unix(0, 0).UTC()) {
		entryModTime = time.Time{}
	}

	w, err := ctx.Archive.BeginFile(fullPath, entryModTime)
	if err != nil {
		return errors.Wrapf(err, "beginning archive entry %q", fullPath)
	}

	bodyErr := writeBody(w)

	written, endErr := ctx.Archive.EndFile()
	if endErr != nil {
		return errors.Wrapf(endErr, "closing archive entry %q", fullPath)
	}
	if bodyErr != nil {
		return errors.Wrapf(bodyErr, "writing archive entry %q", fullPath)
	}

	if !ctx.FastDebug && declaredSize >= 0 && written != declaredSize {
		ctx.Archive.LogIntegrityWarning("file %q: declared size %d, wrote %d bytes", fullPath, declaredSize, written)
	}

	return nil
}
