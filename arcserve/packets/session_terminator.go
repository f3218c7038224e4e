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
	arcserve.Register(arcserve.SigSessionTerminator, func() arcserve.Packet { return &SessionTerminator{} })
}

const catalogPageSize = 16384

// SessionTerminator is the spec section 4.5.6 session-end marker. It names
// the catalog page that records this session's file list.
type SessionTerminator struct {
	Unknown0         uint32
	CatalogPageIndex uint32
	CatalogPageOffset uint32
	Unknown1         uint32

	valid bool
}

func (s *SessionTerminator) Signature() uint32  { return arcserve.SigSessionTerminator }
func (s *SessionTerminator) AppearsValid() bool { return s.valid }

// CatalogRawOffset is the byte offset of this session's catalog entry,
// computed as page·16384 + offset.
func (s *SessionTerminator) CatalogRawOffset() int64 {
	return int64(s.CatalogPageIndex)*catalogPageSize + int64(s.CatalogPageOffset)
}

func (s *SessionTerminator) WriteInformation() string {
	return fmt.Sprintf("session terminator: catalog page=%d offset=%d (raw=%d)",
		s.CatalogPageIndex, s.CatalogPageOffset, s.CatalogRawOffset())
}

func (s *SessionTerminator) LoadFromReader(r *storage.Reader) error {
	var lead [288]byte
	if _, err := io.ReadFull(r, lead[:]); err != nil {
		return errors.Wrap(err, "session terminator: reading leading fill")
	}

	if err := binary.Read(r, binary.LittleEndian, &s.Unknown0); err != nil {
		return errors.Wrap(err, "session terminator: reading unknown0")
	}
	if err := binary.Read(r, binary.LittleEndian, &s.CatalogPageIndex); err != nil {
		return errors.Wrap(err, "session terminator: reading catalog page index")
	}
	if err := binary.Read(r, binary.LittleEndian, &s.CatalogPageOffset); err != nil {
		return errors.Wrap(err, "session terminator: reading catalog page offset")
	}
	if err := binary.Read(r, binary.LittleEndian, &s.Unknown1); err != nil {
		return errors.Wrap(err, "session terminator: reading unknown1")
	}

	var trail [39]byte
	if _, err := io.ReadFull(r, trail[:]); err != nil {
		return errors.Wrap(err, "session terminator: reading trailing fill")
	}

	s.valid = true
	for _, b := range lead {
		if b != 0x7E {
			s.valid = false
			break
		}
	}
	for _, b := range trail {
		if b != 0x7E {
			s.valid = false
			break
		}
	}

	return nil
}

func (s *SessionTerminator) Process(ctx *arcserve.Context) error {
	ctx.Log.Debugw("session terminator", "catalogPageIndex", s.CatalogPageIndex, "catalogPageOffset", s.CatalogPageOffset)
	return nil
}
