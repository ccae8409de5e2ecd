package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/iasflat/internal/logging"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/pipeline"
	"github.com/ppiankov/iasflat/internal/store"
	"github.com/spf13/cobra"
)

var (
	outputDir    string
	outputFormat string
	compression  string
	noLoad       bool
	runTimeout   time.Duration
)

// normalizeCmd represents the normalize command
var normalizeCmd = &cobra.Command{
	Use:   "normalize <document> <target>",
	Short: "Convert a document into one table per entity and load them",
	Long: normalizeLong(`Example:
  iasflat normalize IAS_20240131.xml dw01.internal
  iasflat normalize IAS_20240131.xml.gz dw01.internal --output-dir ./out --no-load
  iasflat normalize IAS_20240131.xml dw01.internal --format xlsx`),
	Args: cobra.ExactArgs(2),
	RunE: runNormalize,
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory the tables are written to (default: output.dir)")
	normalizeCmd.Flags().StringVar(&outputFormat, "format", "", "table format: tsv or xlsx (default: output.format)")
	normalizeCmd.Flags().StringVar(&compression, "compression", "", "input compression: auto, none, gzip, zstd")
	normalizeCmd.Flags().BoolVar(&noLoad, "no-load", false, "write tables only, do not load them into the warehouse")
	normalizeCmd.Flags().DurationVar(&runTimeout, "timeout", 2*time.Hour, "timeout for the whole run")
}

// normalizeLong renders the command help with the table names it writes
func normalizeLong(examples string) string {
	names := make([]string, len(model.NormalizedEntities))
	for i, e := range model.NormalizedEntities {
		names[i] = string(e)
	}
	return fmt.Sprintf(`Normalize streams the document once and writes one table per entity:
%s.

Tables with no rows are not written. When loading is enabled the tables are
bulk inserted into the warehouse at <target> in a single transaction.

%s`, strings.Join(names, ", "), examples)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	document, target := args[0], args[1]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cfg)
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	cfg.Database.Host = target

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  iasflat normalize\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Document:     %s\n", document)
	fmt.Fprintf(os.Stderr, "  Target:       %s\n", target)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "  Format:       %s\n", cfg.Output.Format)
	fmt.Fprintf(os.Stderr, "  Load:         %t\n", !noLoad)
	fmt.Fprintf(os.Stderr, "\n")

	var opts []pipeline.Option
	if !noLoad {
		st, err := store.Open(ctx, cfg.Database, cfg.Catalog, log)
		if err != nil {
			logging.LogError(log, "cli", "runNormalize", "open store", target, err)
			return fmt.Errorf("open store %s: %w", target, err)
		}
		defer func() { _ = st.Close() }()
		opts = append(opts, pipeline.WithLoader(st))
	}

	p, err := pipeline.NewPipeline(cfg, log, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Converting document...\n")
	summary, err := p.Normalize(ctx, document, cfg.Output.Dir, !noLoad)
	if err != nil {
		logging.LogError(log, "cli", "runNormalize", "normalize", document, err)
		return fmt.Errorf("normalize %s: %w", document, err)
	}

	printSummary(summary)
	return nil
}
