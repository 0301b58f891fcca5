package pipeline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mdwiz/mdwiz/internal/model"
)

type hrow struct{ tsn, parent, rank, name string }

var ursidaeChain = []hrow{
	{"202423", "", "Kingdom", "Animalia"},
	{"914154", "202423", "Subkingdom", "Bilateria"},
	{"158852", "914154", "Phylum", "Chordata"},
	{"179913", "158852", "Class", "Mammalia"},
	{"180539", "179913", "Order", "Carnivora"},
	{"180694", "180539", "Family", "Ursidae"},
}

var pinusChain = []hrow{
	{"202422", "", "Kingdom", "Plantae"},
	{"954898", "202422", "Subkingdom", "Viridiplantae"},
	{"846496", "954898", "Division", "Tracheophyta"},
	{"500009", "846496", "Class", "Pinopsida"},
	{"18030", "500009", "Family", "Pinaceae"},
	{"183310", "18030", "Genus", "Pinus"},
	{"183311", "183310", "Species", "Pinus albicaulis"},
}

func with(chain []hrow, extra ...hrow) []hrow {
	return append(append([]hrow{}, chain...), extra...)
}

const nsOpen = `xmlns:ns="http://itis_service.itis.usgs.gov" xmlns:ax21="http://data.itis_service.itis.usgs.gov/xsd" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`

func hierarchyXML(rows []hrow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<ns:getFullHierarchyFromTSNResponse %s><ns:return>", nsOpen)
	for _, r := range rows {
		fmt.Fprintf(&b, "<ax21:hierarchyList><ax21:parentTsn>%s</ax21:parentTsn><ax21:rankName>%s</ax21:rankName><ax21:taxonName>%s</ax21:taxonName><ax21:tsn>%s</ax21:tsn></ax21:hierarchyList>",
			r.parent, r.rank, r.name, r.tsn)
	}
	b.WriteString("</ns:return></ns:getFullHierarchyFromTSNResponse>")
	return b.String()
}

func commonNamesXML(tsn string, names ...model.CommonName) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<ns:getCommonNamesFromTSNResponse %s><ns:return>", nsOpen)
	if len(names) == 0 {
		b.WriteString(`<ax21:commonNames xsi:nil="true"/>`)
	}
	for _, n := range names {
		fmt.Fprintf(&b, "<ax21:commonNames><ax21:commonName>%s</ax21:commonName><ax21:language>%s</ax21:language><ax21:tsn>%s</ax21:tsn></ax21:commonNames>",
			n.CommonName, n.Language, tsn)
	}
	fmt.Fprintf(&b, "<ax21:tsn>%s</ax21:tsn></ns:return></ns:getCommonNamesFromTSNResponse>", tsn)
	return b.String()
}

func acceptedXML(tsn, accepted string) string {
	inner := `<ax21:acceptedNames xsi:nil="true"/>`
	if accepted != "" {
		inner = fmt.Sprintf("<ax21:acceptedNames><ax21:acceptedTsn>%s</ax21:acceptedTsn></ax21:acceptedNames>", accepted)
	}
	return fmt.Sprintf("<ns:getAcceptedNamesFromTSNResponse %s><ns:return>%s<ax21:tsn>%s</ax21:tsn></ns:return></ns:getAcceptedNamesFromTSNResponse>",
		nsOpen, inner, tsn)
}

const rankNamesXML = `<ns:getRankNamesResponse xmlns:ns="http://itis_service.itis.usgs.gov" xmlns:ax23="http://metadata.itis_service.itis.usgs.gov/xsd"><ns:return>
<ax23:rankNames><ax23:kingdomName>Animalia</ax23:kingdomName><ax23:rankId>10</ax23:rankId><ax23:rankName>Kingdom</ax23:rankName></ax23:rankNames>
<ax23:rankNames><ax23:kingdomName>Animalia</ax23:kingdomName><ax23:rankId>20</ax23:rankId><ax23:rankName>Subkingdom</ax23:rankName></ax23:rankNames>
<ax23:rankNames><ax23:kingdomName>Animalia</ax23:kingdomName><ax23:rankId>30</ax23:rankId><ax23:rankName>Phylum</ax23:rankName></ax23:rankNames>
<ax23:rankNames><ax23:kingdomName>Animalia</ax23:kingdomName><ax23:rankId>60</ax23:rankId><ax23:rankName>Class</ax23:rankName></ax23:rankNames>
<ax23:rankNames><ax23:kingdomName>Animalia</ax23:kingdomName><ax23:rankId>100</ax23:rankId><ax23:rankName>Order</ax23:rankName></ax23:rankNames>
<ax23:rankNames><ax23:kingdomName>Animalia</ax23:kingdomName><ax23:rankId>140</ax23:rankId><ax23:rankName>Family</ax23:rankName></ax23:rankNames>
<ax23:rankNames><ax23:kingdomName>Animalia</ax23:kingdomName><ax23:rankId>180</ax23:rankId><ax23:rankName>Genus</ax23:rankName></ax23:rankNames>
</ns:return></ns:getRankNamesResponse>`

// fakeITIS serves generated responses keyed by "method?query".
type fakeITIS struct {
	mu        sync.Mutex
	responses map[string]string
	requests  []string
}

func newFakeITIS() *fakeITIS {
	f := &fakeITIS{responses: map[string]string{
		"getFullHierarchyFromTSN?tsn=180694": hierarchyXML(with(ursidaeChain,
			hrow{"183437", "180694", "Genus", "Ursus"},
			hrow{"183438", "180694", "Genus", "Helarctos"})),
		"getFullHierarchyFromTSN?tsn=183437": hierarchyXML(with(ursidaeChain,
			hrow{"183437", "180694", "Genus", "Ursus"},
			hrow{"180543", "183437", "Species", "Ursus arctos"})),
		"getFullHierarchyFromTSN?tsn=183311": hierarchyXML(pinusChain),
		"getCommonNamesFromTSN?tsn=180694": commonNamesXML("180694",
			model.CommonName{CommonName: "bears", Language: "English"},
			model.CommonName{CommonName: "ours", Language: "French"}),
		"getRankNames": rankNamesXML,
	}}
	for _, tsn := range []string{"180694", "183437", "183311"} {
		f.responses["getAcceptedNamesFromTSN?tsn="+tsn] = acceptedXML(tsn, "")
	}
	f.responses["getAcceptedNamesFromTSN?tsn=999999"] = acceptedXML("999999", "183437")
	return f
}

func (f *fakeITIS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}

	f.mu.Lock()
	f.requests = append(f.requests, key)
	body, ok := f.responses[key]
	f.mu.Unlock()

	if !ok {
		// Unknown common-name lookups look like taxa without names.
		if strings.HasPrefix(key, "getCommonNamesFromTSN?tsn=") {
			tsn := strings.TrimPrefix(key, "getCommonNamesFromTSN?tsn=")
			_, _ = fmt.Fprint(w, commonNamesXML(tsn))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/xml;charset=UTF-8")
	_, _ = fmt.Fprint(w, body)
}

func (f *fakeITIS) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func testConfig(t *testing.T, fake http.Handler) *model.Config {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := model.DefaultConfig()
	cfg.ITIS.BaseURL = server.URL + "/ITISWebService/services/ITISService/"
	cfg.ITIS.RequestsPerSecond = 0
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.MaxRetries = 1
	cfg.Cache.Enabled = false
	return cfg
}
