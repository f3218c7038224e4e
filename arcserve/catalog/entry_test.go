package catalog

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildEntry constructs the raw bytes of one catalog entry for a given
// full path and size, following spec section 4.5.8's layout exactly.
func buildEntry(t *testing.T, fullPath string, size int64, flags uint8) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteByte(1)                 // filesystem
	body.WriteByte(0)                 // mode
	binary.Write(&body, binary.LittleEndian, uint32(0)) // owner id
	binary.Write(&body, binary.LittleEndian, uint32(0)) // attributes
	binary.Write(&body, binary.LittleEndian, uint32(size>>32))
	binary.Write(&body, binary.LittleEndian, uint32(size))
	binary.Write(&body, binary.LittleEndian, uint32(0)) // mtime
	binary.Write(&body, binary.LittleEndian, uint32(0)) // page index
	binary.Write(&body, binary.LittleEndian, uint32(0)) // page offset

	pathBytes := []byte(fullPath)
	filename := "Y.TXT"
	filenameLength := uint16(len(filename) + 1)
	fullPathLength := uint16(len(pathBytes) + 1)

	binary.Write(&body, binary.LittleEndian, filenameLength)
	binary.Write(&body, binary.LittleEndian, fullPathLength)
	body.WriteByte(flags)
	body.Write([]byte{0, 0, 0})
	body.Write(pathBytes)
	body.WriteByte(0)

	entrySize := 2 + body.Len()

	var out bytes.Buffer
	out.WriteByte(0xFF)
	out.WriteByte(byte(entrySize))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestReadEntryParsesPathAndSize(t *testing.T) {
	raw := buildEntry(t, `D:\X\Y.TXT`, 100, 0x01)

	e, err := ReadEntry(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if e.FullPath != `D:\X\Y.TXT` {
		t.Errorf("expected full path D:\\X\\Y.TXT, got %q", e.FullPath)
	}
	if e.Size != 100 {
		t.Errorf("expected size 100, got %d", e.Size)
	}
	if e.Filename != "Y.TXT" {
		t.Errorf("expected filename Y.TXT, got %q", e.Filename)
	}
	if e.Folder != `D:\X\` {
		t.Errorf("expected folder D:\\X\\, got %q", e.Folder)
	}
	if !e.IsFile() {
		t.Error("expected IsFile() true for flags bit 0 set")
	}
}

func TestReadEntrySizeMismatchIsFatal(t *testing.T) {
	raw := buildEntry(t, `D:\X\Y.TXT`, 100, 0x01)
	raw[1] = raw[1] + 5 // corrupt the declared entry size

	if _, err := ReadEntry(bytes.NewReader(raw)); err == nil {
		t.Error("expected error for mismatched declared entry size")
	}
}

func TestReadAllStopsCleanlyAtEOF(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(buildEntry(t, `D:\A.TXT`, 1, 0x01))
	buf.Write(buildEntry(t, `D:\B.TXT`, 2, 0x01))

	entries, err := ReadAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
