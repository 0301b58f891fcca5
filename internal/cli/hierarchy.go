package cli

import (
	"context"
	"fmt"

	"github.com/mdwiz/mdwiz/internal/pipeline"
	"github.com/spf13/cobra"
)

// hierarchyCmd represents the hierarchy command
var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <tsn>...",
	Short: "Print the merged ITIS hierarchy of one or more taxa",
	Long: `Hierarchy merges the ITIS ancestor chains of the given TSNs and prints
the tree one taxon per line, indented by rank.

Example:
  mdwiz hierarchy 180694
  mdwiz hierarchy 180694 183311`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHierarchy,
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
	addServiceFlags(hierarchyCmd)
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	cfg, err := serviceConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p := pipeline.NewPipeline(cfg, logger)
	merged, ranks, err := p.MergeHierarchy(ctx, args)
	if err != nil {
		return fmt.Errorf("merge hierarchy: %w", err)
	}

	renderer := p.Renderer()
	renderer.RenderHierarchy(merged.Root, ranks)
	for _, tsn := range merged.Unavailable {
		renderer.Statusf(false, "Hierarchy for TSN %s unavailable", tsn)
	}
	return nil
}
