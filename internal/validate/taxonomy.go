// Package validate checks generated metadata sections against the element
// order and cardinality of the FGDC CSDGM.
package validate

import (
	"fmt"
	"strings"

	"github.com/mdwiz/mdwiz/internal/xmlnode"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding, located by a path in the same syntax Search
// accepts.
type Issue struct {
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// topLevelOrder is the CSDGM order of taxonomy's children.
var topLevelOrder = map[string]int{
	"keywtax":  0,
	"taxonsys": 1,
	"taxongen": 2,
	"taxoncl":  3,
}

// ValidateTaxonomy checks a taxonomy element: one or more keywtax blocks
// with a thesaurus and keywords, then a single taxoncl whose descendants
// each list rank, value, common names and sub-classifications in that
// order.
func ValidateTaxonomy(section *xmlnode.Node) []Issue {
	var v validator
	if section == nil {
		v.errorf("taxonomy", "section is missing")
		return v.issues
	}
	if section.Tag() != "taxonomy" {
		v.errorf(section.Tag(), "expected root element taxonomy, got %s", section.Tag())
		return v.issues
	}

	last := -1
	for _, c := range section.Children() {
		pos, ok := topLevelOrder[c.Tag()]
		switch {
		case !ok:
			v.errorf("taxonomy/"+c.Tag(), "unexpected element")
		case pos < last:
			v.errorf("taxonomy/"+c.Tag(), "out of order")
		default:
			last = pos
		}
	}

	keywtax := section.Search("keywtax")
	if len(keywtax) == 0 {
		v.errorf("taxonomy/keywtax", "at least one keywtax is required")
	}
	for i, kw := range keywtax {
		v.keywtax(fmt.Sprintf("taxonomy/keywtax[%d]", i+1), kw)
	}

	classes := section.Search("taxoncl")
	switch len(classes) {
	case 0:
		v.errorf("taxonomy/taxoncl", "taxonomic classification is required")
	case 1:
		v.taxoncl("taxonomy/taxoncl", classes[0])
	default:
		v.errorf("taxonomy/taxoncl", "expected one top-level taxoncl, got %d", len(classes))
	}
	return v.issues
}

type validator struct {
	issues []Issue
}

func (v *validator) errorf(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) warnf(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) keywtax(path string, kw *xmlnode.Node) {
	kt := kw.Search("taxonkt")
	switch {
	case len(kt) != 1:
		v.errorf(path+"/taxonkt", "expected exactly one taxonkt, got %d", len(kt))
	case strings.TrimSpace(kt[0].Text) == "":
		v.errorf(path+"/taxonkt", "thesaurus name is empty")
	}

	keys := kw.Search("taxonkey")
	if len(keys) == 0 {
		v.errorf(path+"/taxonkey", "at least one taxonkey is required")
	}
	for i, k := range keys {
		if strings.TrimSpace(k.Text) == "" {
			v.warnf(fmt.Sprintf("%s/taxonkey[%d]", path, i+1), "empty keyword")
		}
	}

	for _, c := range kw.Children() {
		if c.Tag() != "taxonkt" && c.Tag() != "taxonkey" {
			v.errorf(path+"/"+c.Tag(), "unexpected element")
		}
	}
}

func (v *validator) taxoncl(path string, cl *xmlnode.Node) {
	kids := cl.Children()
	if len(kids) < 2 || kids[0].Tag() != "taxonrn" || kids[1].Tag() != "taxonrv" {
		v.errorf(path, "must start with taxonrn then taxonrv")
	}
	for _, tag := range []string{"taxonrn", "taxonrv"} {
		vals := cl.Search(tag)
		switch {
		case len(vals) != 1:
			v.errorf(path+"/"+tag, "expected exactly one %s, got %d", tag, len(vals))
		case strings.TrimSpace(vals[0].Text) == "":
			v.errorf(path+"/"+tag, "is empty")
		}
	}

	seenClass := false
	for _, c := range kids {
		switch c.Tag() {
		case "taxonrn", "taxonrv":
		case "common":
			if seenClass {
				v.errorf(path+"/common", "common name after a sub-classification")
			}
			if strings.TrimSpace(c.Text) == "" {
				v.warnf(path+"/common", "empty common name")
			}
		case "taxoncl":
			seenClass = true
		default:
			v.errorf(path+"/"+c.Tag(), "unexpected element")
		}
	}

	for i, sub := range cl.Search("taxoncl") {
		v.taxoncl(fmt.Sprintf("%s/taxoncl[%d]", path, i+1), sub)
	}
}
