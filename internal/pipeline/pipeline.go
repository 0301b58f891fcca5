// Package pipeline wires the ITIS client, the hierarchy merge and the
// section builder into the operations the CLI exposes.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdwiz/mdwiz/internal/itis"
	"github.com/mdwiz/mdwiz/internal/model"
	"github.com/mdwiz/mdwiz/internal/taxonomy"
	"github.com/mdwiz/mdwiz/internal/validate"
	"github.com/mdwiz/mdwiz/internal/xmlnode"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Service is the taxonomic service the pipeline needs. *itis.Client
// implements it.
type Service interface {
	taxonomy.Service
	ScientificName(ctx context.Context, tsn string) (*model.ScientificName, error)
	SearchByCommonName(ctx context.Context, term string) ([]model.CommonName, error)
	SearchByScientificName(ctx context.Context, term string) ([]model.ScientificName, error)
}

var _ Service = (*itis.Client)(nil)

// Pipeline orchestrates resolve, fetch, merge, build and validate.
type Pipeline struct {
	service  Service
	merger   *taxonomy.Merger
	builder  *taxonomy.Builder
	renderer *Renderer
	config   *model.Config
	logger   *zap.Logger
}

// NewPipeline creates a pipeline talking to the ITIS service described by
// cfg.
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewPipelineWithService(cfg, itis.NewClient(cfg, logger.Named("itis")), logger)
}

// NewPipelineWithService creates a pipeline over an existing service.
func NewPipelineWithService(cfg *model.Config, svc Service, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		service:  svc,
		merger:   taxonomy.NewMerger(svc, logger.Named("merge")),
		builder:  taxonomy.NewBuilder(svc, logger.Named("build")),
		renderer: NewRenderer(),
		config:   cfg,
		logger:   logger,
	}
}

// Renderer returns the renderer used for output.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Request describes one taxonomy section.
type Request struct {
	TSNs []string
	// Keywords become taxonkey elements. When empty, the values of the
	// selected taxa are used.
	Keywords           []string
	Thesaurus          string
	IncludeCommonNames bool
}

// Result is a built section with everything learned while building it.
type Result struct {
	Section  *xmlnode.Node
	Root     *taxonomy.Taxon
	Merge    *taxonomy.MergeResult
	Keywords []string
	Issues   []validate.Issue
}

// ErrNoTSNs is returned when a request names no taxa.
var ErrNoTSNs = errors.New("no TSNs given")

// BuildTaxonomy builds and validates a taxonomy section. Service outages
// degrade the section and show up as warnings in Issues.
func (p *Pipeline) BuildTaxonomy(ctx context.Context, req Request) (*Result, error) {
	if len(lo.Compact(req.TSNs)) == 0 {
		return nil, ErrNoTSNs
	}

	merged, err := p.merger.Merge(ctx, lo.Compact(req.TSNs))
	if err != nil {
		return nil, fmt.Errorf("merge hierarchies: %w", err)
	}

	keywords := req.Keywords
	if len(keywords) == 0 {
		keywords = selectedValues(merged)
	}
	thesaurus := req.Thesaurus
	if thesaurus == "" {
		thesaurus = p.config.Taxonomy.Thesaurus
	}

	section := p.builder.Section(ctx, keywords, thesaurus, merged.Root, req.IncludeCommonNames, merged.Selected)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issues := append(validate.ValidateTaxonomy(section), mergeIssues(merged)...)
	p.logger.Info("taxonomy section built",
		zap.Int("taxa", merged.Root.Len()),
		zap.Strings("selected", merged.Selected),
		zap.Int("issues", len(issues)))

	return &Result{
		Section:  section,
		Root:     merged.Root,
		Merge:    merged,
		Keywords: keywords,
		Issues:   issues,
	}, nil
}

// MergeHierarchy merges the hierarchies of tsns and loads the rank table
// used to print the result.
func (p *Pipeline) MergeHierarchy(ctx context.Context, tsns []string) (*taxonomy.MergeResult, taxonomy.RankTable, error) {
	if len(lo.Compact(tsns)) == 0 {
		return nil, nil, ErrNoTSNs
	}
	merged, err := p.merger.Merge(ctx, lo.Compact(tsns))
	if err != nil {
		return nil, nil, fmt.Errorf("merge hierarchies: %w", err)
	}
	return merged, taxonomy.LoadRankTable(ctx, p.service, p.logger), nil
}

// SearchMode selects which ITIS search runs.
type SearchMode string

const (
	SearchCommon     SearchMode = "common"
	SearchScientific SearchMode = "scientific"
)

// SearchHit is one search result.
type SearchHit struct {
	TSN    string `json:"tsn"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

// Search looks taxa up by vernacular or scientific name.
func (p *Pipeline) Search(ctx context.Context, mode SearchMode, term string) ([]SearchHit, error) {
	switch mode {
	case SearchCommon:
		names, err := p.service.SearchByCommonName(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("search common name: %w", err)
		}
		return lo.Map(names, func(n model.CommonName, _ int) SearchHit {
			return SearchHit{TSN: n.TSN, Name: n.CommonName, Detail: n.Language}
		}), nil
	case SearchScientific:
		names, err := p.service.SearchByScientificName(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("search scientific name: %w", err)
		}
		return lo.Map(names, func(n model.ScientificName, _ int) SearchHit {
			return SearchHit{TSN: n.TSN, Name: n.CombinedName, Detail: n.Author}
		}), nil
	default:
		return nil, fmt.Errorf("unknown search mode %q (want %s or %s)", mode, SearchCommon, SearchScientific)
	}
}

// Describe returns the scientific name of tsn.
func (p *Pipeline) Describe(ctx context.Context, tsn string) (*model.ScientificName, error) {
	return p.service.ScientificName(ctx, tsn)
}

func selectedValues(merged *taxonomy.MergeResult) []string {
	values := lo.FilterMap(merged.Selected, func(tsn string, _ int) (string, bool) {
		t := merged.Root.Find(tsn)
		if t == nil {
			return "", false
		}
		return t.Value, true
	})
	return lo.Uniq(values)
}

func mergeIssues(merged *taxonomy.MergeResult) []validate.Issue {
	var issues []validate.Issue
	for _, tsn := range merged.Unavailable {
		issues = append(issues, validate.Issue{
			Path:     "taxonomy/taxoncl",
			Severity: validate.SeverityWarning,
			Message:  fmt.Sprintf("hierarchy for TSN %s unavailable, taxon omitted", tsn),
		})
	}
	for _, c := range merged.Conflicts {
		issues = append(issues, validate.Issue{
			Path:     "taxonomy/taxoncl",
			Severity: validate.SeverityWarning,
			Message:  fmt.Sprintf("TSN %s listed under %s and %s, kept %s", c.TSN, c.ExistingParent, c.RejectedParent, c.ExistingParent),
		})
	}
	for _, tsn := range merged.Orphans {
		issues = append(issues, validate.Issue{
			Path:     "taxonomy/taxoncl",
			Severity: validate.SeverityWarning,
			Message:  fmt.Sprintf("parent of TSN %s not found, attached to the root", tsn),
		})
	}
	return issues
}
