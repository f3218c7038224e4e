// Package arcserve implements the ARCserve packet-layer framer: it consumes
// the logical byte stream produced by the tape/stream package, recognises
// packet signatures aligned to 512-byte "root sector" boundaries, and
// dispatches to registered packet readers.
//
// Grounded on the teacher's spectrum/tzx/tzx.go readBlocks/newFromBlockID
// dispatch loop (peek a signature byte, look up a constructor, read the
// block, accumulate, continue to EOF), generalised to 32-bit signatures, a
// fixed alignment, and a resync-on-miss layer.
package arcserve

import (
	"io"
	"time"

	"go.uber.org/zap"

	"osrecover/storage"
)

// RootSectorSize is the alignment every packet boundary is relative to.
const RootSectorSize = 512

// Packet is implemented by every ARCserve packet kind (session header, file
// header dialects, file trailer, session terminator, empty sector, and so
// on). AppearsValid is a conservative, syntax-only sanity check used to
// guard against an accidental signature match in random data: false
// negatives (rejecting a genuinely valid packet) are preferred over false
// positives.
type Packet interface {
	Signature() uint32
	AppearsValid() bool
	LoadFromReader(r *storage.Reader) error
	WriteInformation() string
	Process(ctx *Context) error
}

// TapeArchive is the narrow interface packets use to emit recovered content
// and report damage; implemented by the archivewriter package. Kept here,
// not in archivewriter, so packets and the framer depend only on this
// interface and never on the concrete writer.
type TapeArchive interface {
	BeginFile(fullPath string, modTime time.Time) (io.Writer, error)
	EndFile() (written int64, err error)
	BeginDirectory(fullPath string) error

	LogIntegrityWarning(format string, args ...interface{})
	LogError(format string, args ...interface{})
}

// Context is threaded through every packet's Process call. CurrentBasePath
// is a pointer into the framer's own state so a session header packet can
// update it and have every subsequent file header packet see the change,
// matching spec section 4.4's "the framer holds the last session header (to
// supply CurrentBasePath to subsequent file headers)".
type Context struct {
	Reader  *storage.Reader
	Archive TapeArchive
	Log     *zap.SugaredLogger

	CurrentBasePath *string

	SkipExtraSectionPerFile bool
	FastDebug               bool
}

// factory constructs a zero-valued Packet ready for LoadFromReader.
type factory func() Packet

var registry = make(map[uint32]factory)

// Register associates a packet signature with a constructor. Packet
// implementations call this from an init() function, the same
// registration-by-side-effect idiom the standard library uses for image and
// SQL driver registration; it keeps arcserve and arcserve/packets from
// needing to import each other.
func Register(signature uint32, f factory) {
	registry[signature] = f
}

func lookup(signature uint32) (Packet, bool) {
	f, ok := registry[signature]
	if !ok {
		return nil, false
	}
	return f(), true
}
