package pipeline

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/mdwiz/mdwiz/internal/taxonomy"
	"github.com/mdwiz/mdwiz/internal/validate"
	"github.com/mdwiz/mdwiz/internal/xmlnode"
	"github.com/samber/lo"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	failMark = color.New(color.FgRed).Sprint("✗")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
)

// Renderer writes documents to files or stdout and status lines to stderr.
type Renderer struct {
	Out    io.Writer
	Status io.Writer
}

// NewRenderer returns a Renderer on the process's stdout and stderr.
func NewRenderer() *Renderer {
	return &Renderer{Out: os.Stdout, Status: os.Stderr}
}

// RenderXML writes node as a standalone document with an XML declaration.
// An empty path or "-" writes to Out.
func (r *Renderer) RenderXML(node *xmlnode.Node, path string) error {
	doc := xmlnode.Declaration + node.String()
	if path == "" || path == "-" {
		_, err := io.WriteString(r.Out, doc)
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderHierarchy prints the tree one taxon per line, indented by rank.
func (r *Renderer) RenderHierarchy(root *taxonomy.Taxon, ranks taxonomy.RankTable) {
	_, _ = io.WriteString(r.Out, root.Format(ranks))
}

// RenderSearch prints one hit per line.
func (r *Renderer) RenderSearch(hits []SearchHit) {
	for _, h := range hits {
		if h.Detail != "" {
			_, _ = fmt.Fprintf(r.Out, "%s\t%s\t%s\n", h.TSN, h.Name, h.Detail)
			continue
		}
		_, _ = fmt.Fprintf(r.Out, "%s\t%s\n", h.TSN, h.Name)
	}
}

// RenderSummary prints a short account of a build to Status.
func (r *Renderer) RenderSummary(res *Result) {
	m := res.Merge
	_, _ = fmt.Fprintf(r.Status, "%s taxonomy: %d taxa under %s %s, %d selected\n",
		okMark, res.Root.Len(), res.Root.Name, res.Root.Value, len(m.Selected))
	if len(res.Keywords) > 0 {
		_, _ = fmt.Fprintf(r.Status, "  keywords: %s\n", strings.Join(res.Keywords, ", "))
	}
	from := lo.Keys(m.Accepted)
	slices.Sort(from)
	for _, tsn := range from {
		_, _ = fmt.Fprintf(r.Status, "  TSN %s replaced by accepted TSN %s\n", tsn, m.Accepted[tsn])
	}
	r.RenderIssues(res.Issues)
}

// RenderIssues prints validation issues to Status.
func (r *Renderer) RenderIssues(issues []validate.Issue) {
	for _, i := range issues {
		mark := warnMark
		if i.Severity == validate.SeverityError {
			mark = failMark
		}
		_, _ = fmt.Fprintf(r.Status, "%s %s: %s\n", mark, i.Path, i.Message)
	}
}

// Statusf prints one status line to Status.
func (r *Renderer) Statusf(ok bool, format string, args ...any) {
	mark := okMark
	if !ok {
		mark = failMark
	}
	_, _ = fmt.Fprintf(r.Status, "%s %s\n", mark, fmt.Sprintf(format, args...))
}
