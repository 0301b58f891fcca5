package taxonomy

import (
	"github.com/mdwiz/mdwiz/internal/model"
	"github.com/samber/lo"
)

// KingdomTSN holds the identifiers of the ITIS kingdoms.
var KingdomTSN = map[string]string{
	"Animalia":  "202423",
	"Chromista": "630578",
	"Protozoa":  "630577",
	"Fungi":     "555705",
	"Bacteria":  "50",
	"Plantae":   "202422",
	"Archaea":   "935939",
}

var eukaryotes = []string{"Animalia", "Chromista", "Protozoa", "Fungi", "Plantae"}

// InferRoot picks the root the merged hierarchies hang from: the kingdom
// itself when only one is present, Domain Eukaryota when every kingdom is
// eukaryotic, and Life otherwise (including when no kingdom is known).
func InferRoot(kingdoms []string) *Taxon {
	distinct := lo.Uniq(lo.Compact(kingdoms))
	switch {
	case len(distinct) == 0:
		return NewTaxon("Life", "Life", "")
	case len(distinct) == 1:
		return NewTaxon("Kingdom", distinct[0], KingdomTSN[distinct[0]])
	case lo.Every(eukaryotes, distinct):
		return NewTaxon("Domain", "Eukaryota", "")
	default:
		return NewTaxon("Life", "Life", "")
	}
}

// KingdomOf returns the kingdom named in a hierarchy, or "".
func KingdomOf(rows []model.HierarchyRecord) string {
	for _, r := range rows {
		if r.RankName == "Kingdom" && r.TaxonName != "" {
			return r.TaxonName
		}
	}
	for _, r := range rows {
		if r.KingdomName != "" {
			return r.KingdomName
		}
	}
	return ""
}
