package packets

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"osrecover/arcserve"
	"osrecover/storage"
)

func init() {
	arcserve.Register(arcserve.SigSessionHeaderA, func() arcserve.Packet { return &SessionHeader{signature: arcserve.SigSessionHeaderA} })
	arcserve.Register(arcserve.SigSessionHeaderB, func() arcserve.Packet { return &SessionHeader{signature: arcserve.SigSessionHeaderB} })
	arcserve.Register(arcserve.SigSessionHeaderUnknown, func() arcserve.Packet { return &SessionHeader{signature: arcserve.SigSessionHeaderUnknown} })
}

// Session mode/type/workstation enums are preserved exactly as read;
// unrecognised values are never normalised away (Open Question d).
type SessionType uint16
type WorkstationType uint8

func (t SessionType) String() string {
	switch t {
	case 0:
		return "full"
	case 1:
		return "incremental"
	case 2:
		return "differential"
	default:
		return fmt.Sprintf("unknown(0x%04x)", uint16(t))
	}
}

func (w WorkstationType) String() string {
	switch w {
	case 0:
		return "dos"
	case 1:
		return "os2"
	case 2:
		return "windows"
	case 3:
		return "windows-nt"
	case 4:
		return "netware"
	case 5:
		return "unix"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(w))
	}
}

// SessionHeader is the 4.5.1 packet: the root of a backup session, naming the
// base path every following file header's relative path is joined against.
type SessionHeader struct {
	signature uint32

	RootPath    string
	Username    string
	Password    string
	Description string

	Type  SessionType
	Mode  uint8
	Flags uint32

	CompressionType  uint8
	CompressionLevel uint8

	UnixFSNameLength     uint8
	EncPasswordKeySize   uint8
	EncBABKeySize        uint8
	encryptionKeyHalves  [24]byte

	Version    uint32
	TapeNumber uint16
	StartTime  time.Time

	WorkstationType WorkstationType
	WorkstationName string

	OS2CompressionMethod uint8
	OS2BackupDate        uint16
	OS2BackupTime        uint16
	os2IndexFile         [9]byte

	LastSession          uint8
	ExtendedSessionFlag  uint16
	EncryptionKey        [24]byte

	valid bool
}

func (h *SessionHeader) Signature() uint32  { return h.signature }
func (h *SessionHeader) AppearsValid() bool { return h.valid }

func (h *SessionHeader) WriteInformation() string {
	return fmt.Sprintf("session header: root=%q user=%q type=%s workstation=%s tape=%d",
		h.RootPath, h.Username, h.Type, h.WorkstationType, h.TapeNumber)
}

// LoadFromReader reads the byte-exact layout of spec section 4.5.1.
func (h *SessionHeader) LoadFromReader(r *storage.Reader) error {
	rootPath := make([]byte, 128)
	username := make([]byte, 48)
	password := make([]byte, 24)
	description := make([]byte, 80)

	for _, f := range []struct {
		buf  []byte
		name string
	}{
		{rootPath, "root path"}, {username, "username"}, {password, "password"}, {description, "description"},
	} {
		if _, err := io.ReadFull(r, f.buf); err != nil {
			return errors.Wrapf(err, "session header: reading %s", f.name)
		}
	}

	h.RootPath = trimNulString(rootPath)
	h.Username = trimNulString(username)
	h.Password = trimNulString(password)
	h.Description = trimNulString(description)

	var typ uint16
	if err := binary.Read(r, binary.LittleEndian, &typ); err != nil {
		return errors.Wrap(err, "session header: reading type")
	}
	h.Type = SessionType(typ)

	h.Mode = r.ReadByte()

	if err := binary.Read(r, binary.LittleEndian, &h.Flags); err != nil {
		return errors.Wrap(err, "session header: reading flags")
	}

	h.CompressionType = r.ReadByte()
	h.CompressionLevel = r.ReadByte()
	h.UnixFSNameLength = r.ReadByte()
	h.EncPasswordKeySize = r.ReadByte()
	h.EncBABKeySize = r.ReadByte()

	if _, err := io.ReadFull(r, h.encryptionKeyHalves[:]); err != nil {
		return errors.Wrap(err, "session header: reading encryption key halves")
	}

	if err := binary.Read(r, binary.LittleEndian, &h.Version); err != nil {
		return errors.Wrap(err, "session header: reading version")
	}

	var zero8 [8]byte
	if _, err := io.ReadFull(r, zero8[:]); err != nil {
		return errors.Wrap(err, "session header: reading reserved")
	}

	if err := binary.Read(r, binary.LittleEndian, &h.TapeNumber); err != nil {
		return errors.Wrap(err, "session header: reading tape number")
	}

	var startTimeRaw uint32
	if err := binary.Read(r, binary.BigEndian, &startTimeRaw); err != nil {
		return errors.Wrap(err, "session header: reading start time")
	}
	h.StartTime = UnpackTimestamp(startTimeRaw, 1900)

	r.ReadByte() // reserved
	r.ReadByte() // reserved, documented as always 1

	h.WorkstationType = WorkstationType(r.ReadByte())

	workstationName := make([]byte, 64)
	if _, err := io.ReadFull(r, workstationName); err != nil {
		return errors.Wrap(err, "session header: reading workstation name")
	}
	h.WorkstationName = trimNulString(workstationName)

	h.OS2CompressionMethod = r.ReadByte()

	if err := binary.Read(r, binary.LittleEndian, &h.OS2BackupDate); err != nil {
		return errors.Wrap(err, "session header: reading OS/2 backup date")
	}
	if err := binary.Read(r, binary.LittleEndian, &h.OS2BackupTime); err != nil {
		return errors.Wrap(err, "session header: reading OS/2 backup time")
	}
	if _, err := io.ReadFull(r, h.os2IndexFile[:]); err != nil {
		return errors.Wrap(err, "session header: reading OS/2 index file")
	}

	h.LastSession = r.ReadByte()

	var zero4 [4]byte
	if _, err := io.ReadFull(r, zero4[:]); err != nil {
		return errors.Wrap(err, "session header: reading reserved")
	}

	if err := binary.Read(r, binary.LittleEndian, &h.ExtendedSessionFlag); err != nil {
		return errors.Wrap(err, "session header: reading extended session header")
	}
	if _, err := io.ReadFull(r, h.EncryptionKey[:]); err != nil {
		return errors.Wrap(err, "session header: reading encryption key")
	}

	var trailer [62]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return errors.Wrap(err, "session header: reading trailer padding")
	}

	h.valid = looksLikeText(rootPath) && looksLikeText(username) && looksLikeText(description)
	return nil
}

// Process sets the archive's current base path from the root path, per
// spec section 4.5.1's processing rule.
func (h *SessionHeader) Process(ctx *arcserve.Context) error {
	if h.valid && h.RootPath != "" {
		*ctx.CurrentBasePath = h.RootPath
	}
	return nil
}
