package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mdwiz/mdwiz/internal/model"
	"github.com/mdwiz/mdwiz/internal/pipeline"
	"github.com/mdwiz/mdwiz/internal/taxonomy"
	"github.com/mdwiz/mdwiz/internal/validate"
	"github.com/mdwiz/mdwiz/internal/xmlnode"
	"github.com/spf13/cobra"
)

var (
	keywords    []string
	thesaurus   string
	commonNames bool
	outPath     string
	recordPath  string
	timeout     time.Duration
	noCache     bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string
)

// taxonomyCmd represents the taxonomy command
var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy [tsn...]",
	Short: "Build an FGDC taxonomy section from ITIS",
	Long: `Taxonomy fetches the ITIS hierarchy of every TSN, merges them into a
single classification and writes a CSDGM taxonomy element.

Synonym TSNs are replaced by their accepted TSN. Each selected taxon is
marked with a "TSN: n" common element so the selection can be recovered
from the record later: with --record and no TSN arguments, the taxa
selected in the record's existing section are rebuilt.

Example:
  mdwiz taxonomy 180694 183311
  mdwiz taxonomy 180694 --keyword bears --common-names --out taxonomy.xml
  mdwiz taxonomy 180694 --record metadata.xml
  mdwiz taxonomy --record metadata.xml --common-names`,
	RunE: runTaxonomy,
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)

	taxonomyCmd.Flags().StringSliceVar(&keywords, "keyword", nil, "taxonkey keyword (repeatable; default: names of the selected taxa)")
	taxonomyCmd.Flags().StringVar(&thesaurus, "thesaurus", "", "taxonkt keyword thesaurus (default from config, \"None\")")
	taxonomyCmd.Flags().BoolVar(&commonNames, "common-names", false, "add English common names from ITIS")
	taxonomyCmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (default: stdout, or the record itself with --record)")
	taxonomyCmd.Flags().StringVar(&recordPath, "record", "", "metadata record to update")
	addServiceFlags(taxonomyCmd)
}

// addServiceFlags registers the flags of every command that talks to ITIS.
func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall timeout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh ITIS requests)")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// serviceConfig loads the configuration and applies the service flags.
func serviceConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	cfg.Output.Verbose = verbose
	return cfg, nil
}

func runTaxonomy(cmd *cobra.Command, args []string) error {
	cfg, err := serviceConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var record *xmlnode.Record
	if recordPath != "" {
		record, err = xmlnode.LoadRecord(recordPath)
		if err != nil {
			return fmt.Errorf("load record: %w", err)
		}
	}

	tsns := args
	if len(tsns) == 0 && record != nil {
		if existing := record.Metadata().SearchOne("idinfo/taxonomy"); existing != nil {
			tsns = taxonomy.SelectedTSNs(existing)
		}
	}
	if len(tsns) == 0 {
		return errors.New("no TSNs given and no selections found in the record")
	}

	req := pipeline.Request{
		TSNs:               tsns,
		Keywords:           keywords,
		Thesaurus:          thesaurus,
		IncludeCommonNames: cfg.Taxonomy.IncludeCommonNames,
	}
	if cmd.Flags().Changed("common-names") {
		req.IncludeCommonNames = commonNames
	}

	p := pipeline.NewPipeline(cfg, logger)
	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Building taxonomy for %d TSNs...\n", len(tsns))
	}
	result, err := p.BuildTaxonomy(ctx, req)
	if err != nil {
		return fmt.Errorf("build taxonomy: %w", err)
	}

	renderer := p.Renderer()
	renderer.RenderSummary(result)

	if record != nil {
		if err := p.UpdateRecord(record, result.Section); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if err := record.Save(outPath); err != nil {
			return err
		}
		renderer.Statusf(true, "Wrote %s", record.Path)
	} else {
		if err := renderer.RenderXML(result.Section, outPath); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if outPath != "" && outPath != "-" {
			renderer.Statusf(true, "Wrote %s", outPath)
		}
	}

	if validate.HasErrors(result.Issues) {
		return errors.New("taxonomy section failed validation")
	}
	return nil
}
