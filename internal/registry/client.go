// Package registry talks to the thongtindoanhnghiep.co business-registry
// API: paginated company search, per-tax-code detail, and the region and
// industry reference datasets.
package registry

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/vnreg-cli/internal/cache"
	"github.com/sells-group/vnreg-cli/internal/model"
)

// SearchQuery selects a page of company candidates.
type SearchQuery struct {
	RegionSlug   string
	IndustrySlug string
	Keyword      string
	Page         int
	PageSize     int
}

// Candidate is one row of a search result page.
type Candidate struct {
	TaxCode      string `json:"tax_code"`
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	Status       string `json:"status,omitempty"`
	Slug         string `json:"slug,omitempty"`
	IssuedDate   string `json:"issued_date,omitempty"`
	BusinessLine string `json:"business_line,omitempty"`
}

// SearchPage is one page of candidates plus paging state.
type SearchPage struct {
	Items      []Candidate `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalCount int         `json:"total_count"`
	TotalPages int         `json:"total_pages"`
	HasNext    bool        `json:"has_next"`
}

// Region is a province or city reference entry.
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Industry is a business-line reference entry. The API exposes five
// hierarchy levels but no parent linkage, so HasParent only signals that a
// parent exists somewhere above this entry.
type Industry struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Code      string `json:"code,omitempty"`
	HasParent bool   `json:"has_parent"`
}

// Client is the registry API surface the collector consumes.
type Client interface {
	SearchCandidates(ctx context.Context, q SearchQuery) (*SearchPage, error)
	FetchDetail(ctx context.Context, taxCode string) (*model.Company, error)
	ListRegions(ctx context.Context) ([]Region, error)
	ListIndustries(ctx context.Context) ([]Industry, error)
}

// HTTPClient implements Client against the live API.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	cache      *cache.TTL
	cacheTTL   time.Duration
	userAgent  string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *HTTPClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithMaxRetries sets the retry budget per request.
func WithMaxRetries(n int) Option {
	return func(c *HTTPClient) { c.maxRetries = n }
}

// WithCache attaches a response cache for the reference-data endpoints.
func WithCache(tc *cache.TTL, ttl time.Duration) Option {
	return func(c *HTTPClient) {
		c.cache = tc
		c.cacheTTL = ttl
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}

// NewHTTPClient creates a registry client for the given base URL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		maxRetries: 3,
		userAgent:  "vnreg-cli/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var errNotFound = eris.New("registry: not found")

// getJSON fetches a path with rate limiting and retry. When cacheKey is
// non-empty the response body is served from / stored into the cache.
func (c *HTTPClient) getJSON(ctx context.Context, path string, params url.Values, cacheKey string) ([]byte, error) {
	if cacheKey != "" && c.cache != nil {
		if body, ok := c.cache.Get(cacheKey); ok {
			return body, nil
		}
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for attempt := range c.maxRetries {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "registry: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, eris.Wrap(err, "registry: create request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("registry request failed, retrying",
				zap.String("url", u),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			_ = resp.Body.Close()
			return nil, errNotFound
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("registry: http %d from %s", resp.StatusCode, u)
			zap.L().Warn("registry backend error, retrying",
				zap.String("url", u),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, eris.Errorf("registry: unexpected status %d from %s", resp.StatusCode, u)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			c.backoff(ctx, attempt)
			continue
		}

		if cacheKey != "" && c.cache != nil {
			c.cache.Set(cacheKey, body, c.cacheTTL)
		}
		return body, nil
	}

	return nil, eris.Wrap(lastErr, "registry: all retries exhausted")
}

func (c *HTTPClient) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int64N(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

type searchEnvelope struct {
	Option struct {
		TotalRow    int `json:"TotalRow"`
		CurrentPage int `json:"CurrentPage"`
	} `json:"Option"`
	LtsItems       []map[string]any `json:"LtsItems"`
	LtsDoanhNghiep []map[string]any `json:"LtsDoanhNghiep"`
}

// SearchCandidates fetches one page of company candidates.
func (c *HTTPClient) SearchCandidates(ctx context.Context, q SearchQuery) (*SearchPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}

	params := url.Values{}
	params.Set("p", strconv.Itoa(q.Page))
	params.Set("r", strconv.Itoa(q.PageSize))
	if q.RegionSlug != "" {
		params.Set("l", q.RegionSlug)
	}
	if q.IndustrySlug != "" {
		params.Set("i", q.IndustrySlug)
	}
	if q.Keyword != "" {
		params.Set("k", q.Keyword)
	}

	body, err := c.getJSON(ctx, "/api/company", params, "")
	if err != nil {
		return nil, eris.Wrap(err, "registry: search companies")
	}

	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "registry: decode search response")
	}

	items := env.LtsItems
	if len(items) == 0 {
		items = env.LtsDoanhNghiep
	}

	page := &SearchPage{
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalCount: env.Option.TotalRow,
	}
	for _, it := range items {
		cand := candidateFromItem(it)
		if cand.TaxCode == "" {
			continue
		}
		page.Items = append(page.Items, cand)
	}
	if page.TotalCount > 0 {
		page.TotalPages = (page.TotalCount + q.PageSize - 1) / q.PageSize
	}
	page.HasNext = q.Page < page.TotalPages && len(page.Items) > 0

	return page, nil
}

// FetchDetail fetches the full record for a tax code. Returns (nil, nil)
// when the registry has no such company.
func (c *HTTPClient) FetchDetail(ctx context.Context, taxCode string) (*model.Company, error) {
	if taxCode == "" {
		return nil, eris.New("registry: empty tax code")
	}

	body, err := c.getJSON(ctx, "/api/company/"+url.PathEscape(taxCode), nil, "")
	if err != nil {
		if eris.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "registry: fetch detail %s", taxCode)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrapf(err, "registry: decode detail %s", taxCode)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	company := CompanyFromPayload(payload, body)
	if company.TaxCode == "" {
		company.TaxCode = taxCode
	}
	return company, nil
}
