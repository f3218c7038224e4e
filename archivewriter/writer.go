// Package archivewriter implements arcserve.TapeArchive over a stdlib ZIP
// writer, and tracks per-file damage for the final report.
//
// Grounded on the "open a file, wrap it, stream bytes, close it" shape
// threaded through every teacher cmd/*.go file (os.Open + defer f.Close() +
// storage.NewReader(f)), generalised here to an os.Create + zip.Writer pair
// with the same open/stream/close discipline, one layer further out.
package archivewriter

import (
	"archive/zip"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DamageRecord is one file's recovery outcome, surfaced in the final damage
// report alongside the tape-damage.png image (tape/damage).
type DamageRecord struct {
	Path           string
	DeclaredSize   int64
	WrittenSize    int64
	IntegrityNotes []string
}

// Writer implements arcserve.TapeArchive. It is not safe for concurrent use:
// ARCserve packet processing is single-threaded (spec section 5), and only
// one file entry may be open at a time.
type Writer struct {
	zipFile *os.File
	zw      *zip.Writer
	log     *zap.SugaredLogger

	currentEntry   io.Writer
	currentPath    string
	currentCounter *countingWriter

	damage map[string]*DamageRecord
	errors int
}

// New creates the ZIP file at zipPath and returns a Writer ready to accept
// entries.
func New(zipPath string, log *zap.SugaredLogger) (*Writer, error) {
	f, err := os.Create(zipPath)
	if err != nil {
		return nil, errors.Wrapf(err, "creating archive %q", zipPath)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Writer{
		zipFile: f,
		zw:      zip.NewWriter(f),
		log:     log,
		damage:  make(map[string]*DamageRecord),
	}, nil
}

// countingWriter tracks bytes written to an entry so EndFile can report an
// exact count even though archive/zip's Writer does not expose one.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// BeginFile opens a new ZIP entry at fullPath (backslash-separated ARCserve
// paths are converted to the forward-slash convention ZIP readers expect),
// with modTime as its last-modified time unless modTime is the zero value.
func (a *Writer) BeginFile(fullPath string, modTime time.Time) (io.Writer, error) {
	if a.currentEntry != nil {
		return nil, errors.Errorf("archive entry %q is still open", a.currentPath)
	}

	header := &zip.FileHeader{
		Name:   toZipPath(fullPath),
		Method: zip.Deflate,
	}
	if !modTime.IsZero() {
		header.Modified = modTime
	}

	w, err := a.zw.CreateHeader(header)
	if err != nil {
		return nil, errors.Wrapf(err, "creating zip entry %q", fullPath)
	}

	a.currentCounter = &countingWriter{w: w}
	a.currentEntry = a.currentCounter
	a.currentPath = fullPath
	a.damage[fullPath] = &DamageRecord{Path: fullPath}

	return a.currentEntry, nil
}

// EndFile closes the currently open entry and returns the number of bytes
// written to it.
func (a *Writer) EndFile() (int64, error) {
	if a.currentEntry == nil {
		return 0, errors.New("no archive entry is open")
	}
	written := a.currentCounter.n
	if rec, ok := a.damage[a.currentPath]; ok {
		rec.WrittenSize = written
	}
	a.currentEntry = nil
	a.currentCounter = nil
	return written, nil
}

// BeginDirectory creates an explicit directory entry.
func (a *Writer) BeginDirectory(fullPath string) error {
	name := toZipPath(fullPath)
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	_, err := a.zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating zip directory entry %q", fullPath)
	}
	return nil
}

// LogIntegrityWarning records a non-fatal discrepancy against the
// currently-open (or most recently closed) entry, and logs it.
func (a *Writer) LogIntegrityWarning(format string, args ...interface{}) {
	msg := errors.Errorf(format, args...).Error()
	a.log.Warnw("integrity warning", "detail", msg)
	if a.currentPath != "" {
		if rec, ok := a.damage[a.currentPath]; ok {
			rec.IntegrityNotes = append(rec.IntegrityNotes, msg)
		}
	}
}

// LogError records a run-level error (e.g. a packet parse failure) against
// the archive's error count, surfaced in the final summary.
func (a *Writer) LogError(format string, args ...interface{}) {
	a.errors++
	a.log.Errorw("archive error", "detail", errors.Errorf(format, args...).Error())
}

// Errors reports the number of LogError calls made during this run.
func (a *Writer) Errors() int { return a.errors }

// Damage returns every file's damage record, for the final report.
func (a *Writer) Damage() map[string]*DamageRecord { return a.damage }

// Entries implements catalog.ArchiveLister: a snapshot of every recovered
// file's size, keyed by its original ARCserve path.
func (a *Writer) Entries() map[string]int64 {
	out := make(map[string]int64, len(a.damage))
	for path, rec := range a.damage {
		out[path] = rec.WrittenSize
	}
	return out
}

// Close flushes and closes the underlying ZIP writer and file. An aborted
// run still produces a valid, if short, ZIP archive (spec section 5).
func (a *Writer) Close() error {
	if err := a.zw.Close(); err != nil {
		return errors.Wrap(err, "closing zip writer")
	}
	return a.zipFile.Close()
}

func toZipPath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
