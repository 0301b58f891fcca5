package taxonomy

import (
	"context"
	"fmt"

	"github.com/mdwiz/mdwiz/internal/model"
)

func row(tsn, parent, rank, name string) model.HierarchyRecord {
	r := model.HierarchyRecord{TSN: tsn, ParentTSN: parent, RankName: rank, TaxonName: name}
	if rank == "Kingdom" {
		r.KingdomName = name
	}
	return r
}

var animalChain = []model.HierarchyRecord{
	row("202423", "", "Kingdom", "Animalia"),
	row("914154", "202423", "Subkingdom", "Bilateria"),
	row("158852", "914154", "Phylum", "Chordata"),
	row("179913", "158852", "Class", "Mammalia"),
	row("180539", "179913", "Order", "Carnivora"),
	row("180694", "180539", "Family", "Ursidae"),
}

// fullHierarchy mimics getFullHierarchyFromTSN: ancestors, the taxon, then
// its direct children.
var fixtureHierarchies = map[string][]model.HierarchyRecord{
	"180694": append(append([]model.HierarchyRecord{}, animalChain...),
		row("183437", "180694", "Genus", "Ursus"),
		row("183438", "180694", "Genus", "Helarctos"),
	),
	"183437": append(append([]model.HierarchyRecord{}, animalChain...),
		row("183437", "180694", "Genus", "Ursus"),
		row("180543", "183437", "Species", "Ursus arctos"),
	),
	"183311": {
		row("202422", "", "Kingdom", "Plantae"),
		row("954898", "202422", "Subkingdom", "Viridiplantae"),
		row("846496", "954898", "Division", "Tracheophyta"),
		row("500009", "846496", "Class", "Pinopsida"),
		row("18030", "500009", "Family", "Pinaceae"),
		row("183310", "18030", "Genus", "Pinus"),
		row("183311", "183310", "Species", "Pinus albicaulis"),
	},
	"285": {
		row("50", "0", "Kingdom", "Bacteria"),
		row("956100", "50", "Phylum", "Proteobacteria"),
		row("285", "956100", "Species", "Escherichia coli"),
	},
}

type fakeService struct {
	hierarchies map[string][]model.HierarchyRecord
	accepted    map[string]string
	common      map[string][]model.CommonName
	ranks       []model.RankName

	failAccepted  map[string]bool
	failHierarchy map[string]bool
	failCommon    map[string]bool
	failRanks     bool

	commonCalls []string
}

func newFakeService() *fakeService {
	return &fakeService{
		hierarchies:   fixtureHierarchies,
		accepted:      map[string]string{},
		common:        map[string][]model.CommonName{},
		failAccepted:  map[string]bool{},
		failHierarchy: map[string]bool{},
		failCommon:    map[string]bool{},
	}
}

func unavailable(what, tsn string) error {
	return fmt.Errorf("%w: %s %s", model.ErrServiceUnavailable, what, tsn)
}

func (f *fakeService) AcceptedTSN(_ context.Context, tsn string) (string, error) {
	if f.failAccepted[tsn] {
		return "", unavailable("accepted", tsn)
	}
	if a, ok := f.accepted[tsn]; ok {
		return a, nil
	}
	return tsn, nil
}

func (f *fakeService) FullHierarchy(_ context.Context, tsn string) ([]model.HierarchyRecord, error) {
	if f.failHierarchy[tsn] {
		return nil, unavailable("hierarchy", tsn)
	}
	return f.hierarchies[tsn], nil
}

func (f *fakeService) CommonNames(_ context.Context, tsn string) ([]model.CommonName, error) {
	f.commonCalls = append(f.commonCalls, tsn)
	if f.failCommon[tsn] {
		return nil, unavailable("common names", tsn)
	}
	return f.common[tsn], nil
}

func (f *fakeService) RankNames(context.Context) ([]model.RankName, error) {
	if f.failRanks {
		return nil, unavailable("rank names", "")
	}
	return f.ranks, nil
}

var _ Service = (*fakeService)(nil)
