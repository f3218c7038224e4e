package stream

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"osrecover/tape"
	"osrecover/tape/scan"
)

// writeDumpFile creates a dump file with n payload-only records (no aux
// area), each filled with a distinct byte value so tests can assert on
// content without re-deriving the block map logic.
func writeDumpFile(t *testing.T, dir string, name string, n int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for i := 0; i < n; i++ {
		buf := make([]byte, scan.PayloadSize)
		for j := range buf {
			buf[j] = byte(i)
		}
		if _, err := f.Write(buf); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestStreamReadsInLogicalOrder(t *testing.T) {
	c := tape.SC50
	dir := t.TempDir()
	path := writeDumpFile(t, dir, "tape_0.dump", 3)

	blocks := make(map[tape.Position]scan.Locator)
	for l := 0; l < 3; l++ {
		p, err := c.LogicalToPhysical(l)
		if err != nil {
			t.Fatal(err)
		}
		blocks[p] = scan.Locator{Physical: p, File: path, Offset: int64(l) * scan.PayloadSize}
	}

	s := New(c, blocks)
	defer s.Close()

	if s.Count() != 3 {
		t.Fatalf("expected 3 blocks, got %d", s.Count())
	}

	buf := make([]byte, scan.PayloadSize)
	for i := 0; i < 3; i++ {
		if _, err := io.ReadFull(s, buf); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if buf[0] != byte(i) {
			t.Errorf("block %d: expected fill byte %d, got %d", i, i, buf[0])
		}
	}
}

func TestStreamGapDetection(t *testing.T) {
	c := tape.SC50
	dir := t.TempDir()
	path := writeDumpFile(t, dir, "tape_0.dump", 2)

	blocks := make(map[tape.Position]scan.Locator)
	// Attribute logical 0 and logical 5, leaving a gap of 4 in between.
	p0, _ := c.LogicalToPhysical(0)
	p5, _ := c.LogicalToPhysical(5)
	blocks[p0] = scan.Locator{Physical: p0, File: path, Offset: 0}
	blocks[p5] = scan.Locator{Physical: p5, File: path, Offset: scan.PayloadSize}

	s := New(c, blocks)
	defer s.Close()

	since := s.BlocksConsumed()
	buf := make([]byte, scan.PayloadSize)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Seek(scan.PayloadSize, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatal(err)
	}

	skipped, last := s.WasMissingDataSkipped(since)
	if skipped != 4 {
		t.Errorf("expected 4 blocks skipped, got %d", skipped)
	}
	if last != p0 {
		t.Errorf("expected last valid block %v, got %v", p0, last)
	}
}

func TestStreamSeekFromEndUnsupported(t *testing.T) {
	c := tape.SC50
	s := New(c, map[tape.Position]scan.Locator{})
	if _, err := s.Seek(0, io.SeekEnd); err != ErrNotSupported {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}
