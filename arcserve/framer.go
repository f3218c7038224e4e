package arcserve

import (
	"encoding/binary"
	"io"

	"go.uber.org/zap"

	"osrecover/storage"
	"osrecover/tape"
)

// Framer is the ARCserve packet-layer state machine (spec section 4.4). It
// holds the minimal shared state: the last session header's base path, a
// running miss counter used to coalesce consecutive-miss diagnostics into
// one summary, and the set of packets it produced, for later correlation
// (e.g. by the catalog cross-checker).
type Framer struct {
	reader  *storage.Reader
	archive TapeArchive
	log     *zap.SugaredLogger

	currentBasePath  string
	skipExtraSection bool
	fastDebug        bool

	// GapCheck, when set, lets the scheduler consult the interwoven
	// reader for a physical-block gap traversed since the last packet
	// (spec section 4.4, step 6); nil when driving the framer directly
	// over a plain io.ReadSeeker in tests.
	GapCheck func() (blocksSkipped int, lastValid tape.Position)

	packets []Packet

	missRunStart int64
	inMissRun    bool

	seenUnknownSessionVariant bool
}

// New constructs a Framer reading from reader and emitting recovered content
// through archive.
func New(reader *storage.Reader, archive TapeArchive, log *zap.SugaredLogger) *Framer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Framer{reader: reader, archive: archive, log: log}
}

// SetSkipExtraSectionPerFile mirrors the tape definition's
// skip_extra_section_per_file flag (spec section 4.5.4) through to the
// Windows file header reader.
func (f *Framer) SetSkipExtraSectionPerFile(v bool) { f.skipExtraSection = v }

// SetFastDebug mirrors the --fastdebug CLI flag: it suppresses declared-vs-
// actual size mismatch logging (spec sections 4.5.2/4.5.5).
func (f *Framer) SetFastDebug(v bool) { f.fastDebug = v }

// Packets returns every packet processed so far, in tape order.
func (f *Framer) Packets() []Packet { return f.packets }

// Run executes the scheduler loop (spec section 4.4) until the stream is
// exhausted.
func (f *Framer) Run() error {
	for {
		more, err := f.step()
		if err != nil {
			return err
		}
		if !more {
			pos, _ := f.reader.Position()
			f.flushMissRun(pos)
			return nil
		}
	}
}

// step executes one scheduler iteration: align, read a signature, dispatch.
// It returns false once the stream has fewer than 4 bytes left.
func (f *Framer) step() (bool, error) {
	if err := f.alignToRootSector(); err != nil {
		return false, err
	}

	sigBytes, err := f.reader.Peek(4)
	if err == io.EOF || (err != nil && len(sigBytes) < 4) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	before, _ := f.reader.Position()

	signature := binary.BigEndian.Uint32(sigBytes)
	for i := 0; i < 4; i++ {
		f.reader.ReadByte()
	}

	pkt, ok := lookup(signature)
	if !ok {
		f.recordMiss(before)
		return true, nil
	}

	if err := pkt.LoadFromReader(f.reader); err != nil {
		f.log.Warnw("packet load failed", "signature", signature, "offset", before, "err", err)
		if pkt.AppearsValid() {
			f.log.Infow("partially understood packet before failure", "info", pkt.WriteInformation())
		}
		f.recordMiss(before)
		return true, nil
	}

	if !pkt.AppearsValid() {
		f.recordMiss(before)
		return true, nil
	}

	f.flushMissRun(before)

	if IsSessionHeaderSignature(signature) {
		if signature == SigSessionHeaderUnknown && !f.seenUnknownSessionVariant {
			f.log.Infow("unknown-session-variant", "signature", signature)
			f.seenUnknownSessionVariant = true
		}
	}

	ctx := &Context{
		Reader:                  f.reader,
		Archive:                 f.archive,
		Log:                     f.log,
		CurrentBasePath:         &f.currentBasePath,
		SkipExtraSectionPerFile: f.skipExtraSection,
		FastDebug:               f.fastDebug,
	}

	if err := pkt.Process(ctx); err != nil {
		f.log.Errorw("packet process failed", "signature", signature, "offset", before, "err", err)
	} else {
		f.packets = append(f.packets, pkt)
	}

	if f.GapCheck != nil {
		if skipped, last := f.GapCheck(); skipped > 0 {
			f.log.Warnw("interwoven stream gap", "blocksSkipped", skipped, "lastValidBlock", last.String())
			f.archive.LogIntegrityWarning("gap of %d block(s) after %s", skipped, last.String())
		}
	}

	return true, nil
}

// recordMiss counts one syntactic miss, starting a run if one is not
// already open. Empty-sector packets are dispatched normally via the
// registry and never reach here (spec: "not a packet, always treated as
// skip, do not count as invalid").
func (f *Framer) recordMiss(offset int64) {
	if !f.inMissRun {
		f.inMissRun = true
		f.missRunStart = offset
	}
}

// flushMissRun reports the open miss run, if any, as ending at end (the
// offset of the packet that closed it, or the end of the stream).
func (f *Framer) flushMissRun(end int64) {
	if !f.inMissRun {
		return
	}
	f.inMissRun = false

	sectors := (end - f.missRunStart) / RootSectorSize
	if sectors < 1 {
		sectors = 1
	}
	f.log.Infow("skipped sectors", "count", sectors, "offset", f.missRunStart)
}

// alignToRootSector advances the cursor to the next 512-byte boundary.
func (f *Framer) alignToRootSector() error {
	pos, err := f.reader.Position()
	if err != nil {
		return err
	}
	rem := pos % RootSectorSize
	if rem == 0 {
		return nil
	}
	_, err = f.reader.Seek(RootSectorSize-rem, io.SeekCurrent)
	return err
}
