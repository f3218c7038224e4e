package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"osrecover/tape/scan"
)

func writeTapeDefinition(t *testing.T, dir, dumpPath string) string {
	t.Helper()
	defPath := filepath.Join(dir, "tape.def")
	contents := "cartridge_type = SC-50\n" +
		"display_name = Test Set\n" +
		"has_auxiliary_data = false\n" +
		"[dump]\n" +
		"path = " + dumpPath + "\n" +
		"start_hint = 0\n"
	if err := os.WriteFile(defPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return defPath
}

func writeSingleRecordDump(t *testing.T, dir string) string {
	t.Helper()
	dumpPath := filepath.Join(dir, "tape_0.dump")
	payload := bytes.Repeat([]byte{0xAB}, scan.PayloadSize)
	if err := os.WriteFile(dumpPath, payload, 0o644); err != nil {
		t.Fatal(err)
	}
	return dumpPath
}

func TestRunGeometryReportsCoverage(t *testing.T) {
	dir := t.TempDir()
	dumpPath := writeSingleRecordDump(t, dir)
	defPath := writeTapeDefinition(t, dir, dumpPath)

	if err := runGeometry(defPath); err != nil {
		t.Fatalf("runGeometry returned error: %v", err)
	}
}

func TestRunGeometryRejectsMissingDefinition(t *testing.T) {
	if err := runGeometry(filepath.Join(t.TempDir(), "missing.def")); err == nil {
		t.Error("expected an error for a missing tape definition file")
	}
}
