// Package config reads the text "tape definition" that names a cartridge,
// its dump files, and the blocks known to be bad — the one piece of CLI
// input every extraction run needs.
//
// Format is line-oriented key = value pairs with a repeated [dump] section,
// in the same spirit as the teacher's plain positional-argument CLI parsing:
// no external configuration library appears anywhere in the retrieved
// dependency corpus (no viper, no envconfig), so this stays hand-rolled and
// intentionally small.
package config

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"osrecover/tape"
)

// DumpFileEntry is one [dump] section: the dump file's path, an optional
// starting logical-block hint, and the set of logical blocks known to be
// bad within it.
type DumpFileEntry struct {
	Path        string
	StartHint   *int
	KnownBad    map[int]struct{}
}

// TapeDefinition is the parsed shape of a tape definition file (spec
// section 6).
type TapeDefinition struct {
	Cartridge                tape.Cartridge
	DisplayName              string
	HasAuxiliaryData         bool
	SkipExtraSectionPerFile  bool
	SkipBlocks               map[int]struct{}
	DumpFiles                []DumpFileEntry
}

var knownCartridges = map[string]tape.Cartridge{
	"SC-50":  tape.SC50,
	"ADR-50": tape.SC50,
	"SC50":   tape.SC50,
}

// Parse reads a tape definition from r.
func Parse(r io.Reader) (*TapeDefinition, error) {
	def := &TapeDefinition{
		SkipBlocks: make(map[int]struct{}),
	}

	var current *DumpFileEntry
	cartridgeSet := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if line == "[dump]" {
			def.DumpFiles = append(def.DumpFiles, DumpFileEntry{KnownBad: make(map[int]struct{})})
			current = &def.DumpFiles[len(def.DumpFiles)-1]
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			return nil, errors.Errorf("tape definition line %d: expected key = value, got %q", lineNo, line)
		}

		var err error
		if current != nil {
			err = applyDumpField(current, key, value)
		} else {
			err = applyTopLevelField(def, key, value, &cartridgeSet)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "tape definition line %d", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading tape definition")
	}

	if !cartridgeSet {
		return nil, errors.New("tape definition: missing cartridge_type")
	}
	if def.DisplayName == "" {
		return nil, errors.New("tape definition: missing display_name")
	}
	if len(def.DumpFiles) == 0 {
		return nil, errors.New("tape definition: no [dump] entries")
	}

	return def, nil
}

func splitKeyValue(line string) (string, string, bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

func applyTopLevelField(def *TapeDefinition, key, value string, cartridgeSet *bool) error {
	switch key {
	case "cartridge_type":
		c, ok := knownCartridges[value]
		if !ok {
			return errors.Errorf("unknown cartridge_type %q", value)
		}
		def.Cartridge = c
		*cartridgeSet = true

	case "display_name":
		def.DisplayName = value

	case "has_auxiliary_data":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(err, "has_auxiliary_data %q", value)
		}
		def.HasAuxiliaryData = b

	case "skip_extra_section_per_file":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(err, "skip_extra_section_per_file %q", value)
		}
		def.SkipExtraSectionPerFile = b

	case "skip_blocks":
		for _, tok := range splitList(value) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return errors.Wrapf(err, "skip_blocks entry %q", tok)
			}
			def.SkipBlocks[n] = struct{}{}
		}

	default:
		return errors.Errorf("unknown top-level key %q", key)
	}
	return nil
}

func applyDumpField(entry *DumpFileEntry, key, value string) error {
	switch key {
	case "path":
		entry.Path = value

	case "start_hint":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Wrapf(err, "start_hint %q", value)
		}
		entry.StartHint = &n

	case "known_bad":
		for _, tok := range splitList(value) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return errors.Wrapf(err, "known_bad entry %q", tok)
			}
			entry.KnownBad[n] = struct{}{}
		}

	default:
		return errors.Errorf("unknown [dump] key %q", key)
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
