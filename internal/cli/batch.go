package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mdwiz/mdwiz/internal/pipeline"
	"github.com/mdwiz/mdwiz/internal/validate"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Build taxonomy sections for many TSN lists in parallel",
	Long: `Batch builds one taxonomy section per line of the input file:
- Each line lists the TSNs of one section, separated by commas,
  semicolons or whitespace
- Blank lines and # comments are skipped
- Sections are built concurrently and share the ITIS rate limit
- Each section is written to <output-dir>/<tsns>.xml

Example:
  mdwiz batch tsns.txt
  mdwiz batch tsns.txt --concurrency 8 --output-dir ./sections
  mdwiz batch tsns.txt --common-names --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent builds (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./mdwiz-sections", "output directory for sections")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&thesaurus, "thesaurus", "", "taxonkt keyword thesaurus (default from config, \"None\")")
	batchCmd.Flags().BoolVar(&commonNames, "common-names", false, "add English common names from ITIS")
	addServiceFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	cfg, err := serviceConfig(cmd)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  mdwiz Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	template := pipeline.Request{
		Thesaurus:          thesaurus,
		IncludeCommonNames: cfg.Taxonomy.IncludeCommonNames,
	}
	if cmd.Flags().Changed("common-names") {
		template.IncludeCommonNames = commonNames
	}

	p := pipeline.NewPipeline(cfg, logger)
	processor := pipeline.NewBatchProcessor(p, cfg.Concurrency.Workers, template)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := p.Renderer()
	successCount := 0
	failureCount := 0

	for _, result := range results {
		label := strings.Join(result.TSNs, ",")
		if result.Error != nil {
			failureCount++
			renderer.Statusf(false, "%s: %v", label, result.Error)
			continue
		}

		path := filepath.Join(outputDir, sectionFilename(result.TSNs))
		if err := renderer.RenderXML(result.Result.Section, path); err != nil {
			failureCount++
			renderer.Statusf(false, "%s: failed to write section: %v", label, err)
			continue
		}

		if validate.HasErrors(result.Result.Issues) {
			failureCount++
			renderer.Statusf(false, "%s: section failed validation (%s)", label, path)
			renderer.RenderIssues(result.Result.Issues)
			continue
		}
		successCount++
		renderer.Statusf(true, "%s: %d taxa under %s %s", label,
			result.Result.Root.Len(), result.Result.Root.Name, result.Result.Root.Value)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d sections\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 {
		return fmt.Errorf("%d of %d sections failed", failureCount, len(results))
	}
	return nil
}

// sectionFilename names the file of one section after its TSNs.
func sectionFilename(tsns []string) string {
	name := strings.Join(tsns, "_")
	name = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '-' {
			return r
		}
		return '-'
	}, name)
	if len(name) > 100 {
		name = name[:100]
	}
	return "taxonomy-" + name + ".xml"
}
