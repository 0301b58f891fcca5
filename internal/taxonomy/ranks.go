package taxonomy

import (
	"context"
	"strings"

	"github.com/mdwiz/mdwiz/internal/model"
	"go.uber.org/zap"
)

// RankTable maps a rank name to its ITIS rank id (Kingdom 10, Phylum 30,
// ..., Species 220). It only affects how a tree is printed.
type RankTable map[string]int

// RankSource lists the ranks known to the taxonomic service.
type RankSource interface {
	RankNames(ctx context.Context) ([]model.RankName, error)
}

// LoadRankTable fetches the rank names and adds the synthetic Life and
// Domain ranks. When the service is unavailable the empty table is
// returned and printing falls back to no indentation.
func LoadRankTable(ctx context.Context, src RankSource, logger *zap.Logger) RankTable {
	if logger == nil {
		logger = zap.NewNop()
	}
	names, err := src.RankNames(ctx)
	if err != nil {
		logger.Warn("rank names unavailable, printing without indentation", zap.Error(err))
		return RankTable{}
	}

	table := RankTable{"Life": 1, "Domain": 5}
	for _, r := range names {
		if r.RankName == "" {
			continue
		}
		table[r.RankName] = r.RankID
	}
	return table
}

// Indent returns the indentation for rank.
func (r RankTable) Indent(rank string) string {
	return strings.Repeat("  ", r[rank]/10)
}
