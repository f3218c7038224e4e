package packets

import (
	"io"

	"github.com/pkg/errors"

	"osrecover/arcserve"
	"osrecover/storage"
)

func init() {
	arcserve.Register(arcserve.SigEmptySector, func() arcserve.Packet { return &EmptySector{} })
}

// EmptySector consumes padding up to the next root sector boundary. It is
// never invalid: spec section 4.4 treats the all-zero signature as "skip,
// do not count as invalid" rather than a miss.
type EmptySector struct {
	NonZeroBytes int
}

func (s *EmptySector) Signature() uint32  { return arcserve.SigEmptySector }
func (s *EmptySector) AppearsValid() bool { return true }

func (s *EmptySector) WriteInformation() string {
	return "empty sector"
}

func (s *EmptySector) LoadFromReader(r *storage.Reader) error {
	pos, err := r.Position()
	if err != nil {
		return errors.Wrap(err, "empty sector: reading position")
	}

	remaining := (arcserve.RootSectorSize - int(pos%arcserve.RootSectorSize)) % arcserve.RootSectorSize

	buf := make([]byte, remaining)
	if _, err := io.ReadFull(r, buf); err != nil {
		return errors.Wrap(err, "empty sector: reading padding")
	}

	for _, b := range buf {
		if b != 0 {
			s.NonZeroBytes++
		}
	}

	return nil
}

func (s *EmptySector) Process(ctx *arcserve.Context) error {
	if s.NonZeroBytes > 0 {
		ctx.Log.Errorw("empty sector contains non-zero bytes", "count", s.NonZeroBytes)
	}
	return nil
}
