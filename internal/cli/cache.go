package cli

import (
	"errors"
	"fmt"

	"github.com/mdwiz/mdwiz/internal/cache"
	"github.com/mdwiz/mdwiz/internal/pipeline"
	"github.com/spf13/cobra"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clean the ITIS response cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many ITIS responses are cached on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, err := openDiskCache()
		if err != nil {
			return err
		}
		stats, err := disk.Stats()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "dir:      %s\nentries:  %d\nexpired:  %d\nbytes:    %d\n",
			disk.Dir(), stats.Entries, stats.Expired, stats.Bytes)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired and unreadable cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, err := openDiskCache()
		if err != nil {
			return err
		}
		removed, err := disk.Prune()
		if err != nil {
			return fmt.Errorf("prune cache: %w", err)
		}
		pipeline.NewRenderer().Statusf(true, "Removed %d entries from %s", removed, disk.Dir())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached ITIS response",
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, err := openDiskCache()
		if err != nil {
			return err
		}
		if err := disk.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		pipeline.NewRenderer().Statusf(true, "Cleared %s", disk.Dir())
		return nil
	},
}

func openDiskCache() (*cache.DiskCache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	disk := cache.OpenDisk(cfg.Cache)
	if disk == nil {
		return nil, errors.New("no cache directory configured (cache.dir)")
	}
	return disk, nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd, cacheClearCmd)
}
