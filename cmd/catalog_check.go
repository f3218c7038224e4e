package cmd

import (
	"archive/zip"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"osrecover/arcserve/catalog"
)

var catalogCheckCmd = &cobra.Command{
	Use:                   "catalog-check ZIP_PATH CAT_PATH",
	Short:                 "Cross-check a produced archive against an ARCserve .CAT catalog",
	Long: `Reads the catalog entries from CAT_PATH and compares them against the
files actually present in ZIP_PATH, reporting each entry as recovered,
damaged (present but with a different size), or missing.`,
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runCatalogCheck(args[0], args[1]); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(catalogCheckCmd)
}

// zipLister implements catalog.ArchiveLister by reading an existing ZIP
// archive's entries and their uncompressed sizes.
type zipLister map[string]int64

func (z zipLister) Entries() map[string]int64 { return z }

func loadZipLister(path string) (zipLister, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive %q", path)
	}
	defer r.Close()

	out := make(zipLister, len(r.File))
	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, "/")
		out[name] = int64(f.UncompressedSize64)
	}
	return out, nil
}

func runCatalogCheck(zipPath, catPath string) error {
	lister, err := loadZipLister(zipPath)
	if err != nil {
		return err
	}

	catFile, err := os.Open(catPath)
	if err != nil {
		return errors.Wrap(err, "opening catalog")
	}
	defer catFile.Close()

	entries, err := catalog.ReadAll(catFile)
	if err != nil {
		return errors.Wrap(err, "reading catalog")
	}

	report := catalog.CrossCheck(entries, lister)

	for _, result := range report.Results {
		switch result.Status {
		case catalog.StatusDamaged:
			fmt.Printf("DAMAGED   %s (declared %d, recovered %d)\n", result.Entry.FullPath, result.Entry.Size, result.DamagedBytes)
		case catalog.StatusMissing:
			fmt.Printf("MISSING   %s (declared %d)\n", result.Entry.FullPath, result.Entry.Size)
		default:
			fmt.Printf("RECOVERED %s\n", result.Entry.FullPath)
		}
	}

	fmt.Printf("\n%d recovered, %d damaged, %d missing\n", report.Recovered, report.Damaged, report.Missing)

	return nil
}
