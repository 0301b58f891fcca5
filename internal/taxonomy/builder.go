package taxonomy

import (
	"context"
	"strings"

	"github.com/mdwiz/mdwiz/internal/model"
	"github.com/mdwiz/mdwiz/internal/xmlnode"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// TSNMarkerPrefix starts the common-name element that records which taxa
// were selected by the user rather than pulled in as ancestors.
const TSNMarkerPrefix = "TSN: "

// CommonNameSource looks up vernacular names.
type CommonNameSource interface {
	CommonNames(ctx context.Context, tsn string) ([]model.CommonName, error)
}

// Builder renders taxon trees as FGDC taxonomy elements.
type Builder struct {
	names  CommonNameSource
	logger *zap.Logger
}

// NewBuilder returns a Builder. names may be nil, in which case common
// names are never looked up.
func NewBuilder(names CommonNameSource, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{names: names, logger: logger}
}

// Build walks root pre-order and emits one taxoncl per taxon, children in
// the order [taxonrn, taxonrv, common..., taxoncl...]. Service common names
// precede the "TSN: n" marker written for identifiers in annotate. A failed
// common name lookup only drops that taxon's service names.
func (b *Builder) Build(ctx context.Context, root *Taxon, includeCommonNames bool, annotate []string) *xmlnode.Node {
	marks := lo.SliceToMap(annotate, func(tsn string) (string, struct{}) {
		return tsn, struct{}{}
	})
	return b.taxoncl(ctx, root, includeCommonNames, marks)
}

func (b *Builder) taxoncl(ctx context.Context, t *Taxon, includeCommonNames bool, marks map[string]struct{}) *xmlnode.Node {
	n := xmlnode.New("taxoncl")
	n.Add("taxonrn", t.Name)
	n.Add("taxonrv", t.Value)

	if includeCommonNames && !t.Virtual() {
		for _, name := range b.englishNames(ctx, t.TSN) {
			n.Add("common", name)
		}
	}
	if _, ok := marks[t.TSN]; ok && !t.Virtual() {
		n.Add("common", TSNMarkerPrefix+t.TSN)
	}

	for _, c := range t.Children {
		n.AddChild(b.taxoncl(ctx, c, includeCommonNames, marks), -1, false)
	}
	return n
}

func (b *Builder) englishNames(ctx context.Context, tsn string) []string {
	if b.names == nil {
		return nil
	}
	names, err := b.names.CommonNames(ctx, tsn)
	if err != nil {
		b.logger.Warn("common names unavailable", zap.String("tsn", tsn), zap.Error(err))
		return nil
	}
	english := lo.Filter(names, func(c model.CommonName, _ int) bool {
		return c.Language == "English" && c.CommonName != ""
	})
	return lo.Map(english, func(c model.CommonName, _ int) string {
		return c.CommonName
	})
}

// Section wraps Build in a complete taxonomy element: a keywtax block
// naming thesaurus ("None" when empty) with one taxonkey per keyword,
// followed by the classification.
func (b *Builder) Section(ctx context.Context, keywords []string, thesaurus string, root *Taxon, includeCommonNames bool, annotate []string) *xmlnode.Node {
	if thesaurus == "" {
		thesaurus = "None"
	}
	section := xmlnode.New("taxonomy")
	keywtax := section.Add("keywtax", "")
	keywtax.Add("taxonkt", thesaurus)
	for _, kw := range keywords {
		keywtax.Add("taxonkey", kw)
	}
	section.AddChild(b.Build(ctx, root, includeCommonNames, annotate), -1, false)
	return section
}

// SelectedTSNs recovers the user's selections from an existing taxonomy
// section by reading its "TSN: n" markers in document order.
func SelectedTSNs(section *xmlnode.Node) []string {
	var tsns []string
	section.Walk(func(n *xmlnode.Node) bool {
		if n.Tag() == "common" && strings.HasPrefix(n.Text, TSNMarkerPrefix) {
			tsns = append(tsns, strings.TrimSpace(strings.TrimPrefix(n.Text, TSNMarkerPrefix)))
		}
		return true
	})
	return lo.Uniq(tsns)
}
