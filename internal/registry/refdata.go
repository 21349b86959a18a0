package registry

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

type refEnvelope struct {
	LtsItem []map[string]any `json:"LtsItem"`
}

// decodeRefItems accepts either the enveloped form or a bare array.
func decodeRefItems(body []byte) ([]map[string]any, error) {
	var env refEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.LtsItem) > 0 {
		return env.LtsItem, nil
	}
	var items []map[string]any
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListRegions fetches the province/city reference dataset. Responses are
// cached, the dataset changes rarely.
func (c *HTTPClient) ListRegions(ctx context.Context) ([]Region, error) {
	body, err := c.getJSON(ctx, "/api/city", nil, "refdata:regions")
	if err != nil {
		return nil, eris.Wrap(err, "registry: list regions")
	}

	items, err := decodeRefItems(body)
	if err != nil {
		return nil, eris.Wrap(err, "registry: decode regions")
	}

	regions := make([]Region, 0, len(items))
	for _, it := range items {
		r := Region{
			ID:   int64Field(it, "ID", "id"),
			Name: stringField(it, "Title", "ten"),
			Slug: strings.TrimPrefix(stringField(it, "SolrID", "solr_id"), "/"),
		}
		if r.Name == "" {
			continue
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// ListIndustries fetches the business-line reference dataset. The API
// flattens its five hierarchy levels into Lv1..Lv5 code columns; the deepest
// populated level is the entry's own code, and any shallower one implies a
// parent exists.
func (c *HTTPClient) ListIndustries(ctx context.Context) ([]Industry, error) {
	body, err := c.getJSON(ctx, "/api/industry", nil, "refdata:industries")
	if err != nil {
		return nil, eris.Wrap(err, "registry: list industries")
	}

	items, err := decodeRefItems(body)
	if err != nil {
		return nil, eris.Wrap(err, "registry: decode industries")
	}

	industries := make([]Industry, 0, len(items))
	for _, it := range items {
		ind := Industry{
			ID:   int64Field(it, "ID", "id"),
			Name: stringField(it, "Title", "ten"),
			Slug: strings.TrimPrefix(stringField(it, "SolrID", "solr_id"), "/"),
		}
		if ind.Name == "" {
			continue
		}

		levels := 0
		for _, key := range []string{"Lv1", "Lv2", "Lv3", "Lv4", "Lv5"} {
			if code := stringField(it, key); code != "" {
				ind.Code = code
				levels++
			}
		}
		ind.HasParent = levels > 1

		industries = append(industries, ind)
	}
	return industries, nil
}

// RefData bundles both reference datasets.
type RefData struct {
	Regions    []Region
	Industries []Industry
}

// LoadRefData fetches regions and industries concurrently.
func LoadRefData(ctx context.Context, c Client) (*RefData, error) {
	var ref RefData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		regions, err := c.ListRegions(gctx)
		if err != nil {
			return err
		}
		ref.Regions = regions
		return nil
	})
	g.Go(func() error {
		industries, err := c.ListIndustries(gctx)
		if err != nil {
			return err
		}
		ref.Industries = industries
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "registry: load reference data")
	}
	return &ref, nil
}
