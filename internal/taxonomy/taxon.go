// Package taxonomy merges ITIS ancestor chains into a single taxon tree
// and renders that tree as an FGDC CSDGM taxonomy section.
package taxonomy

import (
	"fmt"
	"strings"
)

// Taxon is one rank/value pair in a taxonomic hierarchy. TSN is empty for
// the synthetic Life/Domain roots.
type Taxon struct {
	Name     string // rank, e.g. "Genus"
	Value    string // value at that rank, e.g. "Gulo"
	TSN      string
	Children []*Taxon

	// parent is a back reference only; children are owned through Children.
	parent *Taxon
}

// NewTaxon returns a detached taxon.
func NewTaxon(name, value, tsn string) *Taxon {
	return &Taxon{Name: name, Value: value, TSN: tsn}
}

// AddChild appends child and points its parent at t.
func (t *Taxon) AddChild(child *Taxon) {
	child.parent = t
	t.Children = append(t.Children, child)
}

// Parent returns the taxon t was attached to, or nil for a root.
func (t *Taxon) Parent() *Taxon {
	return t.parent
}

// Virtual reports whether t has no identifier.
func (t *Taxon) Virtual() bool {
	return t.TSN == ""
}

// Find searches the subtree depth-first, pre-order, and returns the first
// taxon carrying tsn. The empty identifier never matches.
func (t *Taxon) Find(tsn string) *Taxon {
	if tsn == "" {
		return nil
	}
	if t.TSN == tsn {
		return t
	}
	for _, c := range t.Children {
		if match := c.Find(tsn); match != nil {
			return match
		}
	}
	return nil
}

// Walk visits the subtree pre-order with each taxon's depth below t.
func (t *Taxon) Walk(fn func(taxon *Taxon, depth int)) {
	t.walk(fn, 0)
}

func (t *Taxon) walk(fn func(*Taxon, int), depth int) {
	fn(t, depth)
	for _, c := range t.Children {
		c.walk(fn, depth+1)
	}
}

// Len counts the taxa in the subtree.
func (t *Taxon) Len() int {
	n := 0
	t.Walk(func(*Taxon, int) { n++ })
	return n
}

// Lineage returns the chain from the root down to t.
func (t *Taxon) Lineage() []*Taxon {
	var chain []*Taxon
	for x := t; x != nil; x = x.parent {
		chain = append([]*Taxon{x}, chain...)
	}
	return chain
}

// Format renders one line per taxon, indented two spaces per ten rank-id
// units. Ranks missing from ranks are not indented.
func (t *Taxon) Format(ranks RankTable) string {
	var b strings.Builder
	t.Walk(func(x *Taxon, _ int) {
		b.WriteString(ranks.Indent(x.Name))
		if x.Virtual() {
			fmt.Fprintf(&b, "%s:%s\n", x.Name, x.Value)
			return
		}
		fmt.Fprintf(&b, "%s:%s (tsn=%s)\n", x.Name, x.Value, x.TSN)
	})
	return b.String()
}

func (t *Taxon) String() string {
	return t.Format(nil)
}
