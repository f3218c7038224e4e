// Package cmd implements the command-line surface: one file per
// subcommand, a package-level var per flag, an init() that wires flags and
// registers the command on its parent — the shape every teacher cmd/*.go
// file follows. No literal root-command file survived retrieval alongside
// spectrum_read.go/commodore_geometry.go/amstrad_cat.go, so rootCmd below is
// authored fresh in that same idiom rather than adapted from one.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	debugFlag     bool
	fastDebugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "osrecover",
	Short: "Recover files from raw OnStream/ARCserve tape dumps",
	Long: `osrecover reconstructs a file archive from one or more raw OnStream
SC-50/ADR-50 tape dump files, by re-deriving the cartridge's logical
block order and replaying the ARCserve packet stream those blocks carry.`,
}

// Execute runs the root command, exiting 1 on any configuration or
// initialisation error (spec section 6).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, `Verbose logging, including caller annotations`)
	rootCmd.PersistentFlags().BoolVar(&fastDebugFlag, "fastdebug", false, `Verbose logging without declared-vs-actual size diagnostics`)
}
