package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"osrecover/config"
	"osrecover/tape/damage"
	"osrecover/tape/scan"
)

var geometryCmd = &cobra.Command{
	Use:                   "geometry TAPE_DEFINITION_FILE",
	Short:                 "Print cartridge geometry and block map coverage without writing an archive",
	Long: `Scans a tape definition's dump files and reports the cartridge geometry,
how many physical blocks were attributed, and the contiguous gaps in
coverage, without running the packet-layer framer or writing any output.`,
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runGeometry(args[0]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(geometryCmd)
}

func runGeometry(defPath string) error {
	f, err := os.Open(defPath)
	if err != nil {
		return errors.Wrap(err, "opening tape definition")
	}
	def, err := config.Parse(f)
	f.Close()
	if err != nil {
		return errors.Wrap(err, "parsing tape definition")
	}

	fmt.Printf("Cartridge: %s\n", def.Cartridge.Name)
	fmt.Printf("  Tracks:            %d\n", def.Cartridge.Tracks)
	fmt.Printf("  Frames per track:  %d\n", def.Cartridge.FramesPerTrack)
	fmt.Printf("  Parking zone:      [%d, %d)\n", def.Cartridge.ParkingStart(), def.Cartridge.ParkingEnd())
	fmt.Printf("  Max logical block: %d\n", def.Cartridge.MaxLogical())

	scanEntries := make([]scan.Entry, 0, len(def.DumpFiles))
	for _, df := range def.DumpFiles {
		scanEntries = append(scanEntries, scan.Entry{
			Path:            df.Path,
			StartHint:       df.StartHint,
			KnownBadLogical: df.KnownBad,
		})
	}

	scanner := scan.New(def.Cartridge, def.HasAuxiliaryData, func(format string, a ...interface{}) {
		fmt.Printf("  warning: "+format+"\n", a...)
	})
	result, err := scanner.Scan(scanEntries)
	if err != nil {
		return errors.Wrap(err, "scanning dump files")
	}

	gaps := damage.FindGaps(def.Cartridge, result.Blocks)

	fmt.Printf("\nBlocks attributed: %d / %d\n", len(result.Blocks), def.Cartridge.MaxLogical())
	fmt.Printf("Gaps: %d\n", len(gaps))
	for _, g := range gaps {
		fmt.Printf("  [%d, %d)  (%d blocks)\n", g.FromLogical, g.ToLogical, g.ToLogical-g.FromLogical)
	}

	return nil
}
