package cmd

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestRunExtractEmptyStreamProducesEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	dumpPath := writeSingleRecordDump(t, dir)
	defPath := writeTapeDefinition(t, dir, dumpPath)

	if err := runExtract(defPath); err != nil {
		t.Fatalf("runExtract returned error: %v", err)
	}

	zipPath := filepath.Join(dir, "Test Set.zip")
	if _, err := os.Stat(zipPath); err != nil {
		t.Fatalf("expected archive at %q: %v", zipPath, err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if len(r.File) != 0 {
		t.Errorf("expected an empty archive (no recognised packets in the 0xAB filler payload), got %d entries", len(r.File))
	}

	if _, err := os.Stat(filepath.Join(dir, "tape-damage.png")); err != nil {
		t.Errorf("expected a damage image: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Test Set Extraction.log")); err != nil {
		t.Errorf("expected an extraction log: %v", err)
	}
}

func TestRunExtractRejectsMissingDefinition(t *testing.T) {
	if err := runExtract(filepath.Join(t.TempDir(), "missing.def")); err == nil {
		t.Error("expected an error for a missing tape definition file")
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	cases := map[string]string{
		"Backup Set 1":   "Backup Set 1",
		`Bad/Name:Here`:  "Bad-Name-Here",
		" Trimmed ":      "Trimmed",
	}
	for in, want := range cases {
		if got := sanitizeDisplayName(in); got != want {
			t.Errorf("sanitizeDisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
