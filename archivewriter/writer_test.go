package archivewriter

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriterBeginFileWritesContentAndTracksSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.zip")

	w, err := New(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	entry, err := w.BeginFile(`D:\A.TXT`, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.Write([]byte("Hello")); err != nil {
		t.Fatal(err)
	}
	written, err := w.EndFile()
	if err != nil {
		t.Fatal(err)
	}
	if written != 5 {
		t.Errorf("expected 5 bytes written, got %d", written)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 1 {
		t.Fatalf("expected 1 zip entry, got %d", len(zr.File))
	}
	if zr.File[0].Name != "D:/A.TXT" {
		t.Errorf("expected zip path D:/A.TXT, got %q", zr.File[0].Name)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Hello" {
		t.Errorf("expected contents Hello, got %q", buf.String())
	}
}

func TestWriterRejectsNestedBeginFile(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "out.zip"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if _, err := w.BeginFile(`D:\A.TXT`, time.Time{}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.BeginFile(`D:\B.TXT`, time.Time{}); err == nil {
		t.Error("expected error opening a second entry before the first is closed")
	}
}

func TestWriterEntriesReflectsWrittenSizes(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "out.zip"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	entry, _ := w.BeginFile(`D:\X\Y.TXT`, time.Time{})
	entry.Write([]byte("12345678"))
	w.EndFile()

	entries := w.Entries()
	if entries[`D:\X\Y.TXT`] != 8 {
		t.Errorf("expected tracked size 8, got %d", entries[`D:\X\Y.TXT`])
	}
}
