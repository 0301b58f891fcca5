package model

import "errors"

// ErrServiceUnavailable marks any failure of an external service call:
// transport errors, non-2xx responses, bodies that cannot be read as the
// expected shape. Callers pick a fallback when errors.Is matches it.
var ErrServiceUnavailable = errors.New("service unavailable")

// HierarchyRecord is one row of a taxon's ancestor chain.
type HierarchyRecord struct {
	TSN         string `json:"tsn"`
	ParentTSN   string `json:"parentTsn"`
	RankName    string `json:"rankName"`
	TaxonName   string `json:"taxonName"`
	KingdomName string `json:"kingdomName,omitempty"` // set on the Kingdom row only
}

// CommonName is a vernacular name for a TSN.
type CommonName struct {
	CommonName string `json:"commonName"`
	Language   string `json:"language"`
	TSN        string `json:"tsn"`
}

// RankName is one rank known to the service. The same rank name appears
// once per kingdom.
type RankName struct {
	KingdomName string `json:"kingdomName"`
	RankID      int    `json:"rankId"`
	RankName    string `json:"rankName"`
}

// ScientificName is a search hit for a scientific name query.
type ScientificName struct {
	TSN          string `json:"tsn"`
	CombinedName string `json:"combinedName"`
	Author       string `json:"author,omitempty"`
	Kingdom      string `json:"kingdom,omitempty"`
}
