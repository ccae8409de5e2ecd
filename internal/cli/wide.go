package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/iasflat/internal/cache"
	"github.com/ppiankov/iasflat/internal/logging"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/pipeline"
	"github.com/ppiankov/iasflat/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// wideCmd represents the wide command
var wideCmd = &cobra.Command{
	Use:   "wide <target> <folder> [file-ref]",
	Short: "Convert a cataloged document into Demo_Records and Benefit_Records",
	Long: `Wide looks up a document in the FileMetaData catalog at <target>, reads it
from <folder> and writes one wide row-set per member (Demo_Records) and one
per benefit (Benefit_Records) back into <folder>.

Without [file-ref] the most recently cataloged document is used.

Example:
  iasflat wide dw01.internal /data/ias
  iasflat wide dw01.internal /data/ias IAS_20240131.xml`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runWide,
}

func init() {
	rootCmd.AddCommand(wideCmd)

	wideCmd.Flags().StringVar(&outputFormat, "format", "", "table format: tsv or xlsx (default: output.format)")
	wideCmd.Flags().StringVar(&compression, "compression", "", "input compression: auto, none, gzip, zstd")
	wideCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Hour, "timeout for the whole run")
}

func runWide(cmd *cobra.Command, args []string) error {
	target, folder := args[0], args[1]
	ref := ""
	if len(args) == 3 {
		ref = args[2]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	cfg.Database.Host = target

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  iasflat wide\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Target:       %s\n", target)
	fmt.Fprintf(os.Stderr, "  Folder:       %s\n", folder)
	fmt.Fprintf(os.Stderr, "  File:         %s\n", refLabel(ref))
	fmt.Fprintf(os.Stderr, "  Format:       %s\n", cfg.Output.Format)
	fmt.Fprintf(os.Stderr, "\n")

	p, closeStore, err := newCatalogPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Fprintf(os.Stderr, "⚙️  Converting document...\n")
	summary, err := p.Wide(ctx, ref, folder)
	if err != nil {
		logging.LogError(log, "cli", "runWide", "wide", ref, err)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("file %s not found in catalog %s.%s (folder %s)",
				refLabel(ref), cfg.Catalog.Schema, cfg.Catalog.Table, folder)
		}
		return err
	}

	printSummary(summary)
	return nil
}

// applyRunFlags copies the per-run flags over the loaded config
func applyRunFlags(cfg *model.Config) {
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if compression != "" {
		cfg.Input.Compression = compression
	}
}

// newCatalogPipeline opens the warehouse catalog, memoizes lookups and
// builds a pipeline on top of it. The returned func closes the store.
func newCatalogPipeline(ctx context.Context, cfg *model.Config, log logrus.FieldLogger) (*pipeline.Pipeline, func(), error) {
	st, err := store.Open(ctx, cfg.Database, cfg.Catalog, log)
	if err != nil {
		logging.LogError(log, "cli", "newCatalogPipeline", "open store", cfg.Database.Host, err)
		return nil, nil, fmt.Errorf("open store %s: %w", cfg.Database.Host, err)
	}
	closeStore := func() { _ = st.Close() }

	catalog := cache.NewMemoryCatalog(st, cfg.Catalog.CacheTTL)
	p, err := pipeline.NewPipeline(cfg, log, pipeline.WithCatalog(catalog))
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return p, closeStore, nil
}

func refLabel(ref string) string {
	if ref == "" {
		return "<latest>"
	}
	return ref
}
