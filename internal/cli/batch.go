package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/iasflat/internal/logging"
	"github.com/ppiankov/iasflat/internal/worker"
	"github.com/spf13/cobra"
)

var batchTimeout time.Duration

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <target> <folder> <refs-file>",
	Short: "Run wide conversions for every file reference in a list",
	Long: `Batch reads file references from <refs-file> (one per line, # comments and
blank lines ignored) and runs a wide conversion for each.

Each document is written as <stem>_Demo_Records and <stem>_Benefit_Records
in <folder>, so documents in one batch never overwrite each other. Documents
are converted one at a time. A failed reference is reported and the batch
continues with the next one. Catalog lookups are memoized for the duration
of the batch; a reference that resolves to a document already converted is
reported without converting it again.

Example:
  iasflat batch dw01.internal /data/ias refs.txt
  iasflat batch dw01.internal /data/ias refs.txt --timeout 6h`,
	Args: cobra.ExactArgs(3),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outputFormat, "format", "", "table format: tsv or xlsx (default: output.format)")
	batchCmd.Flags().StringVar(&compression, "compression", "", "input compression: auto, none, gzip, zstd")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 12*time.Hour, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	target, folder, file := args[0], args[1], args[2]

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

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  iasflat Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Target:       %s\n", target)
	fmt.Fprintf(os.Stderr, "  Folder:       %s\n", folder)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, closeStore, err := newCatalogPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	processor := worker.NewBatchProcessor(p.WideRunner(folder))

	fmt.Fprintf(os.Stderr, "⚙️  Processing references...\n")
	fmt.Fprintf(os.Stderr, "\n")
	started := time.Now()
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		logging.LogError(log, "cli", "runBatch", "process file", file, err)
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	reusedCount := 0
	var rows int

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Ref, result.Error)
			continue
		}
		successCount++
		if result.Summary.Reused {
			reusedCount++
			fmt.Fprintf(os.Stderr, "↺ %s: already converted as %s\n", result.Ref, result.Summary.Document)
			continue
		}
		rows += result.Summary.TotalRows()
		fmt.Fprintf(os.Stderr, "✓ %s: %d rows (%s)\n", result.Ref, result.Summary.TotalRows(), result.Summary.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:    %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Reused:     %d\n", reusedCount)
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Rows:       %d\n", rows)
	fmt.Fprintf(os.Stderr, "  Elapsed:    %s\n", time.Since(started).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", folder)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d references failed", failureCount, len(results))
	}
	return nil
}
