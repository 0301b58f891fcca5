package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdwiz/mdwiz/internal/pipeline"
	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search common|scientific <term>",
	Short: "Look up TSNs by common or scientific name",
	Long: `Search queries ITIS and prints one match per line: TSN, name and
language (common names) or author (scientific names).

Example:
  mdwiz search common "grizzly bear"
  mdwiz search scientific Ursus`,
	Args:      cobra.MinimumNArgs(2),
	ValidArgs: []string{string(pipeline.SearchCommon), string(pipeline.SearchScientific)},
	RunE:      runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addServiceFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := serviceConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mode := pipeline.SearchMode(args[0])
	term := strings.Join(args[1:], " ")

	p := pipeline.NewPipeline(cfg, logger)
	hits, err := p.Search(ctx, mode, term)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		p.Renderer().Statusf(false, "No matches for %q", term)
		return nil
	}
	p.Renderer().RenderSearch(hits)
	if verbose {
		p.Renderer().Statusf(true, "%d matches", len(hits))
	}
	return nil
}

// describeCmd prints the scientific name behind a TSN.
var describeCmd = &cobra.Command{
	Use:   "describe <tsn>",
	Short: "Print the scientific name of a TSN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := serviceConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		p := pipeline.NewPipeline(cfg, logger)
		name, err := p.Describe(ctx, args[0])
		if err != nil {
			return fmt.Errorf("describe %s: %w", args[0], err)
		}
		p.Renderer().RenderSearch([]pipeline.SearchHit{{TSN: name.TSN, Name: name.CombinedName, Detail: name.Kingdom}})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	addServiceFlags(describeCmd)
}
