package cmd

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildCatalogEntry constructs one raw catalog entry, following the same
// layout arcserve/catalog.ReadEntry expects (spec section 4.5.8).
func buildCatalogEntry(t *testing.T, fullPath string, filename string, size int64) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteByte(1) // filesystem
	body.WriteByte(0) // mode
	binary.Write(&body, binary.LittleEndian, uint32(0))
	binary.Write(&body, binary.LittleEndian, uint32(0))
	binary.Write(&body, binary.LittleEndian, uint32(size>>32))
	binary.Write(&body, binary.LittleEndian, uint32(size))
	binary.Write(&body, binary.LittleEndian, uint32(0))
	binary.Write(&body, binary.LittleEndian, uint32(0))
	binary.Write(&body, binary.LittleEndian, uint32(0))

	pathBytes := []byte(fullPath)
	filenameLength := uint16(len(filename) + 1)
	fullPathLength := uint16(len(pathBytes) + 1)

	binary.Write(&body, binary.LittleEndian, filenameLength)
	binary.Write(&body, binary.LittleEndian, fullPathLength)
	body.WriteByte(0x01) // flags: is a file
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

func TestRunCatalogCheckReportsDamagedEntry(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "out.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(zf)
	entry, err := zw.Create(`D:/X/Y.TXT`)
	if err != nil {
		t.Fatal(err)
	}
	// Declared size is 100; only 80 bytes actually made it into the archive.
	if _, err := entry.Write(bytes.Repeat([]byte{'a'}, 80)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	zf.Close()

	catPath := filepath.Join(dir, "out.cat")
	if err := os.WriteFile(catPath, buildCatalogEntry(t, `D:\X\Y.TXT`, "Y.TXT", 100), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runCatalogCheck(zipPath, catPath); err != nil {
		t.Fatalf("runCatalogCheck returned error: %v", err)
	}
}

func TestLoadZipListerReadsSizes(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "out.zip")

	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(zf)
	entry, _ := zw.Create("D:/A.TXT")
	entry.Write([]byte("12345"))
	zw.Close()
	zf.Close()

	lister, err := loadZipLister(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	if lister["D:/A.TXT"] != 5 {
		t.Errorf("expected size 5, got %d", lister["D:/A.TXT"])
	}
}
