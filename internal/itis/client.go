// Package itis is a client for the ITIS (Integrated Taxonomic Information
// System) XML web service.
package itis

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mdwiz/mdwiz/internal/cache"
	"github.com/mdwiz/mdwiz/internal/model"
	"github.com/mdwiz/mdwiz/internal/util"
	"github.com/mdwiz/mdwiz/internal/worker"
	"github.com/mdwiz/mdwiz/internal/xmlnode"
	"go.uber.org/zap"
)

// Client calls the ITIS service. It is safe for concurrent use; batch
// workers share one Client so they share its limiter and cache.
type Client struct {
	fetcher *Fetcher
	limiter *worker.Limiter
	cache   cache.Cache
	robots  *util.RobotsChecker
	baseURL string
	logger  *zap.Logger
}

// NewClient wires a Client from cfg.
func NewClient(cfg *model.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	fetcher := NewFetcher(
		cfg.HTTP.Timeout,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
	)
	fetcher.SetMaxAttempts(cfg.HTTP.MaxRetries)

	c := &Client{
		fetcher: fetcher,
		limiter: worker.NewLimiter(cfg.ITIS.RequestsPerSecond, cfg.ITIS.Burst),
		cache:   cache.New(cfg.Cache),
		baseURL: cfg.ITIS.BaseURL,
		logger:  logger,
	}
	if c.baseURL == "" {
		c.baseURL = model.DefaultITISBaseURL
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}
	if cfg.ITIS.RespectRobots {
		c.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, fetcher.HTTPClient())
	}
	return c
}

// AcceptedTSN returns the accepted identifier for tsn, or tsn itself when
// it is already valid.
func (c *Client) AcceptedTSN(ctx context.Context, tsn string) (string, error) {
	resp, err := c.call(ctx, "getAcceptedNamesFromTSN", url.Values{"tsn": {tsn}})
	if err != nil {
		return "", err
	}
	for _, accepted := range resp.SearchText("return/acceptedNames/acceptedTsn") {
		if accepted = strings.TrimSpace(accepted); accepted != "" {
			return accepted, nil
		}
	}
	return tsn, nil
}

// FullHierarchy returns the ancestors of tsn, the taxon itself and its
// direct children, root first.
func (c *Client) FullHierarchy(ctx context.Context, tsn string) ([]model.HierarchyRecord, error) {
	resp, err := c.call(ctx, "getFullHierarchyFromTSN", url.Values{"tsn": {tsn}})
	if err != nil {
		return nil, err
	}

	var rows []model.HierarchyRecord
	for _, n := range resp.Search("return/hierarchyList") {
		row := model.HierarchyRecord{
			TSN:       field(n, "tsn"),
			ParentTSN: field(n, "parentTsn"),
			RankName:  field(n, "rankName"),
			TaxonName: field(n, "taxonName"),
		}
		if row.TSN == "" {
			continue
		}
		if row.RankName == "Kingdom" {
			row.KingdomName = row.TaxonName
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CommonNames returns every vernacular name recorded for tsn.
func (c *Client) CommonNames(ctx context.Context, tsn string) ([]model.CommonName, error) {
	resp, err := c.call(ctx, "getCommonNamesFromTSN", url.Values{"tsn": {tsn}})
	if err != nil {
		return nil, err
	}
	return commonNames(resp), nil
}

// RankNames lists every rank per kingdom.
func (c *Client) RankNames(ctx context.Context) ([]model.RankName, error) {
	resp, err := c.call(ctx, "getRankNames", nil)
	if err != nil {
		return nil, err
	}

	var ranks []model.RankName
	for _, n := range resp.Search("return/rankNames") {
		id, err := strconv.Atoi(field(n, "rankId"))
		if err != nil {
			c.logger.Debug("skipping rank without numeric id",
				zap.String("rank", field(n, "rankName")))
			continue
		}
		ranks = append(ranks, model.RankName{
			KingdomName: field(n, "kingdomName"),
			RankID:      id,
			RankName:    field(n, "rankName"),
		})
	}
	return ranks, nil
}

// ScientificName returns the scientific name recorded for tsn.
func (c *Client) ScientificName(ctx context.Context, tsn string) (*model.ScientificName, error) {
	resp, err := c.call(ctx, "getScientificNameFromTSN", url.Values{"tsn": {tsn}})
	if err != nil {
		return nil, err
	}
	ret := resp.SearchOne("return")
	if ret == nil || field(ret, "combinedName") == "" {
		return nil, fmt.Errorf("%w: no scientific name for tsn %s", model.ErrServiceUnavailable, tsn)
	}
	name := scientificName(ret)
	if name.TSN == "" {
		name.TSN = tsn
	}
	return &name, nil
}

// SearchByCommonName finds taxa with a vernacular name containing term.
func (c *Client) SearchByCommonName(ctx context.Context, term string) ([]model.CommonName, error) {
	resp, err := c.call(ctx, "searchByCommonName", url.Values{"srchKey": {term}})
	if err != nil {
		return nil, err
	}
	return commonNames(resp), nil
}

// SearchByScientificName finds taxa with a scientific name containing term.
func (c *Client) SearchByScientificName(ctx context.Context, term string) ([]model.ScientificName, error) {
	resp, err := c.call(ctx, "searchByScientificName", url.Values{"srchKey": {term}})
	if err != nil {
		return nil, err
	}

	var names []model.ScientificName
	for _, n := range resp.Search("return/scientificNames") {
		if name := scientificName(n); name.TSN != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// call issues one service request and parses the response. Every failure
// wraps model.ErrServiceUnavailable.
func (c *Client) call(ctx context.Context, method string, params url.Values) (*xmlnode.Node, error) {
	requestURL := c.baseURL + method
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}
	key := cache.CacheKey(requestURL)

	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			if resp, err := parseResponse(data); err == nil {
				c.logger.Debug("itis cache hit", zap.String("method", method))
				return resp, nil
			}
			_ = c.cache.Delete(key)
		}
	}

	delay, err := c.robotsDelay(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrServiceUnavailable, method, err)
	}
	if err := c.limiter.WaitWithDelay(ctx, requestURL, delay); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrServiceUnavailable, method, err)
	}

	c.logger.Debug("itis request", zap.String("url", requestURL))
	result, err := c.fetcher.FetchWithRetry(ctx, requestURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrServiceUnavailable, method, err)
	}

	resp, err := parseResponse(result.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrServiceUnavailable, method, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(key, result.Body, 0); err != nil {
			c.logger.Warn("caching itis response failed", zap.String("method", method), zap.Error(err))
		}
	}
	return resp, nil
}

// robotsDelay returns the crawl delay for requestURL, or an error when
// robots.txt disallows it. It is a no-op unless robots checking is on.
func (c *Client) robotsDelay(ctx context.Context, requestURL string) (time.Duration, error) {
	if c.robots == nil {
		return 0, nil
	}
	allowed, delay, err := c.robots.CanFetch(ctx, requestURL)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, errors.New("disallowed by robots.txt")
	}
	return delay, nil
}

func parseResponse(data []byte) (*xmlnode.Node, error) {
	return xmlnode.ParseBytes(data, xmlnode.ParseOptions{Strict: true})
}

func field(n *xmlnode.Node, tag string) string {
	if c := n.SearchOne(tag); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

func commonNames(resp *xmlnode.Node) []model.CommonName {
	var names []model.CommonName
	for _, n := range resp.Search("return/commonNames") {
		if n.IsLeaf() {
			continue
		}
		names = append(names, model.CommonName{
			CommonName: field(n, "commonName"),
			Language:   field(n, "language"),
			TSN:        field(n, "tsn"),
		})
	}
	return names
}

func scientificName(n *xmlnode.Node) model.ScientificName {
	return model.ScientificName{
		TSN:          field(n, "tsn"),
		CombinedName: field(n, "combinedName"),
		Author:       field(n, "author"),
		Kingdom:      field(n, "kingdom"),
	}
}
