package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"osrecover/archivewriter"
	"osrecover/arcserve"
	_ "osrecover/arcserve/packets" // registers every packet kind via init()
	"osrecover/config"
	"osrecover/rlog"
	"osrecover/storage"
	"osrecover/tape"
	"osrecover/tape/damage"
	"osrecover/tape/scan"
	"osrecover/tape/stream"
)

var extractCmd = &cobra.Command{
	Use:                   "extract TAPE_DEFINITION_FILE",
	Short:                 "Reconstruct an archive from a tape definition's dump files",
	Long: `Reads a tape definition file (section 6), scans its dump files into a
block map, replays the interwoven ARCserve packet stream, and writes every
recovered file into a ZIP archive alongside a tape-damage.png coverage image.`,
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runExtract(args[0]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(defPath string) error {
	f, err := os.Open(defPath)
	if err != nil {
		return errors.Wrap(err, "opening tape definition")
	}
	def, err := config.Parse(f)
	f.Close()
	if err != nil {
		return errors.Wrap(err, "parsing tape definition")
	}

	outDir := filepath.Dir(defPath)
	base := sanitizeDisplayName(def.DisplayName)
	zipPath := filepath.Join(outDir, base+".zip")
	logPath := filepath.Join(outDir, base+" Extraction.log")
	damagePath := filepath.Join(outDir, "tape-damage.png")

	log := rlog.New(rlog.Options{Debug: debugFlag, FastDebug: fastDebugFlag, LogFilePath: logPath})

	scanEntries := make([]scan.Entry, 0, len(def.DumpFiles))
	for _, df := range def.DumpFiles {
		scanEntries = append(scanEntries, scan.Entry{
			Path:            df.Path,
			StartHint:       df.StartHint,
			KnownBadLogical: df.KnownBad,
		})
	}

	scanner := scan.New(def.Cartridge, def.HasAuxiliaryData, func(format string, a ...interface{}) {
		log.Warnw("scan warning", "detail", fmt.Sprintf(format, a...))
	})
	scanResult, err := scanner.Scan(scanEntries)
	if err != nil {
		return errors.Wrap(err, "scanning dump files")
	}
	log.Infow("block map built", "blocks", len(scanResult.Blocks))

	s := stream.New(def.Cartridge, scanResult.Blocks)
	defer s.Close()
	reader := storage.NewReader(s)

	archive, err := archivewriter.New(zipPath, log)
	if err != nil {
		return errors.Wrap(err, "creating output archive")
	}

	framer := arcserve.New(reader, archive, log)
	framer.SetSkipExtraSectionPerFile(def.SkipExtraSectionPerFile)
	framer.SetFastDebug(fastDebugFlag)

	since := s.BlocksConsumed()
	framer.GapCheck = func() (int, tape.Position) {
		skipped, last := s.WasMissingDataSkipped(since)
		since = s.BlocksConsumed()
		return skipped, last
	}

	runErr := framer.Run()
	if closeErr := archive.Close(); closeErr != nil && runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		return errors.Wrap(runErr, "running extraction")
	}

	if err := writeDamageImage(damagePath, def, scanResult); err != nil {
		log.Warnw("could not write damage image", "err", err)
	}

	log.Infow("extraction complete",
		"archive", zipPath,
		"damageImage", damagePath,
		"packetsProcessed", len(framer.Packets()),
		"archiveErrors", archive.Errors(),
	)

	return nil
}

func writeDamageImage(path string, def *config.TapeDefinition, scanResult *scan.Result) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating damage image")
	}
	defer out.Close()

	knownBad := make(map[tape.Position]struct{})
	for _, df := range def.DumpFiles {
		for logical := range df.KnownBad {
			if p, err := def.Cartridge.LogicalToPhysical(logical); err == nil {
				knownBad[p] = struct{}{}
			}
		}
	}

	return damage.Render(out, def.Cartridge, scanResult.Blocks, knownBad)
}

// sanitizeDisplayName strips characters a filesystem would reject from a
// tape definition's display name before it is used to build output paths.
func sanitizeDisplayName(name string) string {
	r := strings.NewReplacer(
		"/", "-", `\`, "-", ":", "-", "*", "-", "?", "-",
		`"`, "-", "<", "-", ">", "-", "|", "-",
	)
	return strings.TrimSpace(r.Replace(name))
}
