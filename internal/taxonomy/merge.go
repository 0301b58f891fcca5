package taxonomy

import (
	"context"
	"errors"

	"github.com/mdwiz/mdwiz/internal/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// HierarchySource resolves identifiers and fetches ancestor chains.
type HierarchySource interface {
	AcceptedTSN(ctx context.Context, tsn string) (string, error)
	FullHierarchy(ctx context.Context, tsn string) ([]model.HierarchyRecord, error)
}

// Service is everything the merge and the section builder consume.
type Service interface {
	HierarchySource
	CommonNameSource
	RankSource
}

// Conflict is a TSN the service placed under two different parents. The
// first placement is kept.
type Conflict struct {
	TSN            string
	ExistingParent string
	RejectedParent string
}

// MergeResult is the merged tree plus what had to be worked around to
// build it.
type MergeResult struct {
	Root *Taxon

	// Selected holds the resolved identifiers of the requested taxa, in
	// request order without duplicates.
	Selected []string
	// Accepted maps a requested identifier to its accepted identifier when
	// the two differ.
	Accepted map[string]string
	// Unavailable lists identifiers whose hierarchy could not be fetched.
	Unavailable []string
	Conflicts   []Conflict
	// Orphans lists non-kingdom taxa whose parent was not in the tree; they
	// were attached to the root.
	Orphans []string
}

// Merger builds one taxon tree out of several ancestor chains.
type Merger struct {
	src    HierarchySource
	logger *zap.Logger
}

// NewMerger returns a Merger reading from src.
func NewMerger(src HierarchySource, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{src: src, logger: logger}
}

// Merge resolves every tsn to its accepted identifier, fetches the ancestor
// chains, infers a root and merges the chains under it so each identifier
// appears once. Service failures degrade the result and are recorded in it;
// the only error returned is the context's.
func (m *Merger) Merge(ctx context.Context, tsns []string) (*MergeResult, error) {
	res := &MergeResult{Accepted: make(map[string]string)}

	var hierarchies [][]model.HierarchyRecord
	for _, tsn := range lo.Uniq(tsns) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		accepted := m.resolveAccepted(ctx, tsn)
		if accepted != tsn {
			res.Accepted[tsn] = accepted
		}
		if lo.Contains(res.Selected, accepted) {
			continue
		}
		res.Selected = append(res.Selected, accepted)

		rows, err := m.src.FullHierarchy(ctx, accepted)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			m.logger.Warn("hierarchy unavailable, taxon omitted",
				zap.String("tsn", accepted), zap.Error(err))
			res.Unavailable = append(res.Unavailable, accepted)
			continue
		}
		// The service also lists the taxon's direct children; keep ancestors only.
		rows = lo.Filter(rows, func(r model.HierarchyRecord, _ int) bool {
			return r.ParentTSN != accepted
		})
		hierarchies = append(hierarchies, rows)
	}

	res.Root = InferRoot(lo.Map(hierarchies, func(h []model.HierarchyRecord, _ int) string {
		return KingdomOf(h)
	}))

	declared := make(map[string]string)
	for _, rows := range hierarchies {
		for _, row := range rows {
			m.mergeRow(res, declared, row)
		}
	}
	return res, nil
}

func (m *Merger) resolveAccepted(ctx context.Context, tsn string) string {
	accepted, err := m.src.AcceptedTSN(ctx, tsn)
	switch {
	case errors.Is(err, model.ErrServiceUnavailable):
		m.logger.Warn("accepted name unavailable, using tsn as given",
			zap.String("tsn", tsn), zap.Error(err))
		return tsn
	case err != nil || accepted == "":
		return tsn
	}
	return accepted
}

// mergeRow places one row. declared holds the parent each placed TSN was
// listed under; conflicts are judged against it rather than against the
// tree, where an orphan hangs from the root.
func (m *Merger) mergeRow(res *MergeResult, declared map[string]string, row model.HierarchyRecord) {
	root := res.Root
	if row.TSN == "" {
		return
	}
	parentTSN := normalizeParent(row.ParentTSN)

	if existing := root.Find(row.TSN); existing != nil {
		prev, seen := declared[row.TSN]
		if !seen {
			declared[row.TSN] = parentTSN
			return
		}
		if prev != parentTSN {
			m.logger.Warn("tsn listed under two parents, keeping the first",
				zap.String("tsn", row.TSN),
				zap.String("kept_parent", prev),
				zap.String("rejected_parent", parentTSN))
			res.Conflicts = append(res.Conflicts, Conflict{
				TSN:            row.TSN,
				ExistingParent: prev,
				RejectedParent: parentTSN,
			})
		}
		return
	}
	declared[row.TSN] = parentTSN

	// A kingdom root without a well-known identifier adopts the row's.
	if root.Virtual() && root.Name == "Kingdom" && row.RankName == "Kingdom" && row.TaxonName == root.Value {
		root.TSN = row.TSN
		return
	}

	parent := root.Find(parentTSN)
	if parent == nil {
		parent = root
		if row.RankName != "Kingdom" {
			res.Orphans = append(res.Orphans, row.TSN)
		}
	}
	parent.AddChild(NewTaxon(row.RankName, row.TaxonName, row.TSN))
}

// normalizeParent maps the service's "no parent" markers to "".
func normalizeParent(tsn string) string {
	if tsn == "0" {
		return ""
	}
	return tsn
}
