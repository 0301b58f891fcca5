package pipeline

import (
	"errors"
	"slices"

	"github.com/mdwiz/mdwiz/internal/xmlnode"
)

// idinfoBeforeTaxonomy lists the idinfo children CSDGM places before
// taxonomy.
var idinfoBeforeTaxonomy = []string{
	"citation", "descript", "timeperd", "status", "spdom", "keywords",
}

// UpdateRecord puts section into record at metadata/idinfo/taxonomy,
// replacing an existing taxonomy element or inserting one in CSDGM order.
// A missing idinfo is created as the first child of metadata.
func (p *Pipeline) UpdateRecord(record *xmlnode.Record, section *xmlnode.Node) error {
	md := record.Metadata()
	if md == nil {
		return errors.New("record has no root element")
	}
	if section == nil || section.Tag() != "taxonomy" {
		return errors.New("section must be a taxonomy element")
	}

	idinfo := md.SearchOne("idinfo")
	if idinfo == nil {
		idinfo = md.Insert("idinfo", "", 0)
	}

	if idinfo.SearchOne("taxonomy") != nil {
		idinfo.ReplaceChild(section, "taxonomy", true)
		return nil
	}

	pos := 0
	for i, c := range idinfo.Children() {
		if slices.Contains(idinfoBeforeTaxonomy, c.Tag()) {
			pos = i + 1
		}
	}
	idinfo.AddChild(section, pos, true)
	p.logger.Debug("taxonomy inserted into record")
	return nil
}
