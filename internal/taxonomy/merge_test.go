package taxonomy

import (
	"context"
	"testing"

	"github.com/mdwiz/mdwiz/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countTSN(root *Taxon, tsn string) int {
	n := 0
	root.Walk(func(x *Taxon, _ int) {
		if x.TSN == tsn {
			n++
		}
	})
	return n
}

func TestInferRoot(t *testing.T) {
	tests := []struct {
		kingdoms  []string
		wantName  string
		wantValue string
		wantTSN   string
	}{
		{nil, "Life", "Life", ""},
		{[]string{"", ""}, "Life", "Life", ""},
		{[]string{"Animalia"}, "Kingdom", "Animalia", "202423"},
		{[]string{"Animalia", "Animalia"}, "Kingdom", "Animalia", "202423"},
		{[]string{"Animalia", "Plantae"}, "Domain", "Eukaryota", ""},
		{[]string{"Fungi", "Chromista", "Protozoa"}, "Domain", "Eukaryota", ""},
		{[]string{"Animalia", "Plantae", "Bacteria"}, "Life", "Life", ""},
		{[]string{"Bacteria", "Archaea"}, "Life", "Life", ""},
		{[]string{"Bacteria"}, "Kingdom", "Bacteria", "50"},
		{[]string{"Unheard"}, "Kingdom", "Unheard", ""},
	}

	for _, tt := range tests {
		root := InferRoot(tt.kingdoms)
		assert.Equal(t, tt.wantName, root.Name, "kingdoms %v", tt.kingdoms)
		assert.Equal(t, tt.wantValue, root.Value, "kingdoms %v", tt.kingdoms)
		assert.Equal(t, tt.wantTSN, root.TSN, "kingdoms %v", tt.kingdoms)
	}
}

func TestKingdomOf(t *testing.T) {
	assert.Equal(t, "Animalia", KingdomOf(animalChain))
	assert.Equal(t, "Plantae", KingdomOf([]model.HierarchyRecord{
		{TSN: "183311", RankName: "Species", TaxonName: "Pinus albicaulis", KingdomName: "Plantae"},
	}))
	assert.Equal(t, "", KingdomOf(nil))
}

func TestMerge_SingleKingdom(t *testing.T) {
	res, err := NewMerger(newFakeService(), nil).Merge(context.Background(), []string{"180694"})
	require.NoError(t, err)

	root := res.Root
	assert.Equal(t, "Kingdom", root.Name)
	assert.Equal(t, "Animalia", root.Value)
	assert.Equal(t, "202423", root.TSN)
	assert.Equal(t, []string{"180694"}, res.Selected)

	family := root.Find("180694")
	require.NotNil(t, family)
	assert.Equal(t, "Ursidae", family.Value)
	assert.Empty(t, family.Children, "children of a selected taxon must not be merged")
	assert.Nil(t, root.Find("183437"))

	var lineage []string
	for _, x := range family.Lineage() {
		lineage = append(lineage, x.Value)
	}
	assert.Equal(t, []string{"Animalia", "Bilateria", "Chordata", "Mammalia", "Carnivora", "Ursidae"}, lineage)
	assert.Equal(t, 6, root.Len())
	assert.Empty(t, res.Orphans)
	assert.Empty(t, res.Conflicts)
}

func TestMerge_SharedAncestorAppearsOnce(t *testing.T) {
	res, err := NewMerger(newFakeService(), nil).Merge(context.Background(), []string{"180694", "183437"})
	require.NoError(t, err)

	assert.Equal(t, 1, countTSN(res.Root, "180694"))
	assert.Equal(t, 1, countTSN(res.Root, "183437"))
	assert.Equal(t, 1, countTSN(res.Root, "202423"))

	genus := res.Root.Find("183437")
	require.NotNil(t, genus)
	assert.Equal(t, "180694", genus.Parent().TSN)
	assert.Nil(t, res.Root.Find("180543"))
	assert.Equal(t, 7, res.Root.Len())
}

func TestMerge_OrderIndependent(t *testing.T) {
	m := NewMerger(newFakeService(), nil)
	a, err := m.Merge(context.Background(), []string{"180694", "183437"})
	require.NoError(t, err)
	b, err := m.Merge(context.Background(), []string{"183437", "180694", "183437"})
	require.NoError(t, err)

	assert.Equal(t, a.Root.String(), b.Root.String())
	assert.Equal(t, []string{"183437", "180694"}, b.Selected)
}

func TestMerge_TwoEukaryoticKingdoms(t *testing.T) {
	res, err := NewMerger(newFakeService(), nil).Merge(context.Background(), []string{"180694", "183311"})
	require.NoError(t, err)

	root := res.Root
	assert.Equal(t, "Domain", root.Name)
	assert.Equal(t, "Eukaryota", root.Value)
	assert.True(t, root.Virtual())
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Animalia", root.Children[0].Value)
	assert.Equal(t, "Plantae", root.Children[1].Value)
	assert.Empty(t, res.Orphans)
}

func TestMerge_MixedKingdomsHangFromLife(t *testing.T) {
	res, err := NewMerger(newFakeService(), nil).Merge(context.Background(), []string{"180694", "183311", "285"})
	require.NoError(t, err)

	root := res.Root
	assert.Equal(t, "Life", root.Name)
	require.Len(t, root.Children, 3)
	assert.Equal(t, "Bacteria", root.Children[2].Value)
	assert.Equal(t, "50", root.Children[2].TSN)
	assert.NotNil(t, root.Find("285"))
}

func TestMerge_Empty(t *testing.T) {
	res, err := NewMerger(newFakeService(), nil).Merge(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Life", res.Root.Name)
	assert.Empty(t, res.Root.Children)
}

func TestMerge_AcceptedName(t *testing.T) {
	svc := newFakeService()
	svc.accepted["999999"] = "183437"

	res, err := NewMerger(svc, nil).Merge(context.Background(), []string{"999999", "183437"})
	require.NoError(t, err)
	assert.Equal(t, []string{"183437"}, res.Selected)
	assert.Equal(t, map[string]string{"999999": "183437"}, res.Accepted)
	assert.Equal(t, 1, countTSN(res.Root, "183437"))
}

func TestMerge_AcceptedLookupFailureUsesGivenTSN(t *testing.T) {
	svc := newFakeService()
	svc.failAccepted["180694"] = true

	res, err := NewMerger(svc, nil).Merge(context.Background(), []string{"180694"})
	require.NoError(t, err)
	assert.Equal(t, []string{"180694"}, res.Selected)
	assert.Empty(t, res.Accepted)
	assert.NotNil(t, res.Root.Find("180694"))
}

func TestMerge_UnavailableHierarchyIsOmitted(t *testing.T) {
	svc := newFakeService()
	svc.failHierarchy["183311"] = true

	res, err := NewMerger(svc, nil).Merge(context.Background(), []string{"180694", "183311"})
	require.NoError(t, err)
	assert.Equal(t, []string{"183311"}, res.Unavailable)
	assert.Equal(t, "Kingdom", res.Root.Name)
	assert.Equal(t, "Animalia", res.Root.Value)
	assert.Nil(t, res.Root.Find("183311"))
}

func TestMerge_Conflict(t *testing.T) {
	svc := newFakeService()
	svc.hierarchies = map[string][]model.HierarchyRecord{
		"1": {row("202423", "", "Kingdom", "Animalia"), row("10", "202423", "Phylum", "A"), row("1", "10", "Class", "X")},
		"2": {row("202423", "", "Kingdom", "Animalia"), row("20", "202423", "Phylum", "B"), row("1", "20", "Class", "X"), row("2", "1", "Order", "Y")},
	}

	res, err := NewMerger(svc, nil).Merge(context.Background(), []string{"1", "2"})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, Conflict{TSN: "1", ExistingParent: "10", RejectedParent: "20"}, res.Conflicts[0])
	assert.Equal(t, 1, countTSN(res.Root, "1"))
	assert.Equal(t, "10", res.Root.Find("1").Parent().TSN)
	assert.Equal(t, "1", res.Root.Find("2").Parent().TSN)
}

func TestMerge_OrphanAttachedToRoot(t *testing.T) {
	svc := newFakeService()
	svc.hierarchies = map[string][]model.HierarchyRecord{
		"3": {row("202423", "", "Kingdom", "Animalia"), row("3", "404", "Genus", "Lost")},
	}

	res, err := NewMerger(svc, nil).Merge(context.Background(), []string{"3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, res.Orphans)
	assert.Equal(t, res.Root, res.Root.Find("3").Parent())
}

func TestMerge_SharedOrphanIsNotAConflict(t *testing.T) {
	svc := newFakeService()
	svc.hierarchies = map[string][]model.HierarchyRecord{
		"501": {row("202423", "", "Kingdom", "Animalia"), row("500", "999", "Genus", "Lost"), row("501", "500", "Species", "Lost one")},
		"502": {row("202423", "", "Kingdom", "Animalia"), row("500", "999", "Genus", "Lost"), row("502", "500", "Species", "Lost two")},
	}

	res, err := NewMerger(svc, nil).Merge(context.Background(), []string{"501", "502"})
	require.NoError(t, err)
	assert.Equal(t, []string{"500"}, res.Orphans)
	assert.Empty(t, res.Conflicts)
	assert.Equal(t, 1, countTSN(res.Root, "500"))
	assert.Len(t, res.Root.Find("500").Children, 2)

	// A different declared parent for the orphan is still a conflict.
	svc.hierarchies["502"][1] = row("500", "888", "Genus", "Lost")
	res, err = NewMerger(svc, nil).Merge(context.Background(), []string{"501", "502"})
	require.NoError(t, err)
	assert.Equal(t, []Conflict{{TSN: "500", ExistingParent: "999", RejectedParent: "888"}}, res.Conflicts)
}

func TestMerge_UnknownKingdomAdoptsRowTSN(t *testing.T) {
	svc := newFakeService()
	svc.hierarchies = map[string][]model.HierarchyRecord{
		"7": {row("77", "", "Kingdom", "Unheard"), row("7", "77", "Phylum", "Odd")},
	}

	res, err := NewMerger(svc, nil).Merge(context.Background(), []string{"7"})
	require.NoError(t, err)
	assert.Equal(t, "77", res.Root.TSN)
	assert.Equal(t, 2, res.Root.Len())
	assert.Empty(t, res.Orphans)
}

func TestMerge_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMerger(newFakeService(), nil).Merge(ctx, []string{"180694"})
	assert.ErrorIs(t, err, context.Canceled)
}
