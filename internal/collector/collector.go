// Package collector orchestrates a collection run: enumerate candidates
// from the registry API, fetch details, optionally enrich each record from
// hsctvn.com, and persist everything keyed by tax code. A failing record
// never aborts the run; the stats account for every outcome.
package collector

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/vnreg-cli/internal/model"
	"github.com/sells-group/vnreg-cli/internal/registry"
	"github.com/sells-group/vnreg-cli/internal/store"
)

// Extractor is the secondary-source lookup the collector consumes.
type Extractor interface {
	Extract(ctx context.Context, taxCode string) (*model.Extraction, error)
}

// ProgressFunc receives a human-readable step message plus a position.
// Total is the candidate cap during phase 1 and the record count afterwards.
type ProgressFunc func(message string, current, total int)

// Params selects what a run collects.
type Params struct {
	RegionSlug   string
	IndustrySlug string
	Keyword      string

	// MaxCompanies caps collected records; 0 means every search hit.
	MaxCompanies int
	PageSize     int

	EnableSecondary bool
	// SecondaryDelay runs after every hsctvn.com attempt, success or not.
	SecondaryDelay time.Duration
	// DetailDelay spaces out per-tax-code API detail fetches.
	DetailDelay time.Duration
}

// Collector runs the three collection phases sequentially.
type Collector struct {
	gateway   registry.Client
	extractor Extractor
	store     store.Store
	progress  ProgressFunc
	stop      atomic.Bool
}

// New creates a Collector. progress may be nil.
func New(gateway registry.Client, extractor Extractor, st store.Store, progress ProgressFunc) *Collector {
	if progress == nil {
		progress = func(string, int, int) {}
	}
	return &Collector{
		gateway:   gateway,
		extractor: extractor,
		store:     st,
		progress:  progress,
	}
}

// RequestStop asks the run to wind down at the next record boundary.
// In-flight fetches are allowed to finish.
func (c *Collector) RequestStop() {
	c.stop.Store(true)
}

func (c *Collector) stopped(ctx context.Context) bool {
	return c.stop.Load() || ctx.Err() != nil
}

// Run executes one collection. It always returns stats for whatever was
// processed; the error is non-nil only when the context was cancelled.
func (c *Collector) Run(ctx context.Context, p Params) (*model.RunStats, error) {
	stats := model.NewRunStats()
	log := zap.L().With(
		zap.String("region", p.RegionSlug),
		zap.String("industry", p.IndustrySlug),
	)

	c.audit(ctx, log, fmt.Sprintf(
		"collection started: region=%s industry=%s keyword=%s max=%d secondary=%t",
		p.RegionSlug, p.IndustrySlug, p.Keyword, p.MaxCompanies, p.EnableSecondary,
	))

	companies := c.collectPrimary(ctx, p, stats, log)
	stats.TotalProcessed = len(companies)

	if p.EnableSecondary && len(companies) > 0 && !c.stopped(ctx) {
		c.enrichSecondary(ctx, p, companies, stats, log)
	}

	c.persistAll(ctx, companies, stats, log)

	stats.Finalize()
	summary := fmt.Sprintf(
		"collection finished: processed=%d api=%d hsctvn=%d dual=%d new=%d updated=%d errors=%d duration=%.1fs",
		stats.TotalProcessed, stats.APISuccess, stats.HSCTVNSuccess, stats.DualSourceSuccess,
		stats.NewRecords, stats.UpdatedRecords, stats.Errors, stats.DurationSeconds,
	)
	c.audit(ctx, log, summary)
	log.Info("collection run complete",
		zap.Int("total_processed", stats.TotalProcessed),
		zap.Int("api_success", stats.APISuccess),
		zap.Int("hsctvn_success", stats.HSCTVNSuccess),
		zap.Int("dual_source_success", stats.DualSourceSuccess),
		zap.Int("new_records", stats.NewRecords),
		zap.Int("updated_records", stats.UpdatedRecords),
		zap.Int("errors", stats.Errors),
	)

	return stats, ctx.Err()
}

// collectPrimary walks the paginated search and fetches detail per hit.
func (c *Collector) collectPrimary(ctx context.Context, p Params, stats *model.RunStats, log *zap.Logger) []*model.Company {
	var companies []*model.Company

	for page := 1; ; page++ {
		if c.stopped(ctx) {
			break
		}
		c.progress(fmt.Sprintf("Searching page %d from API...", page), len(companies), p.MaxCompanies)

		res, err := c.gateway.SearchCandidates(ctx, registry.SearchQuery{
			RegionSlug:   p.RegionSlug,
			IndustrySlug: p.IndustrySlug,
			Keyword:      p.Keyword,
			Page:         page,
			PageSize:     p.PageSize,
		})
		if err != nil {
			log.Warn("candidate search failed, stopping enumeration",
				zap.Int("page", page), zap.Error(err))
			stats.Errors++
			break
		}
		if len(res.Items) == 0 {
			break
		}

		for _, cand := range res.Items {
			if c.stopped(ctx) {
				break
			}
			if p.MaxCompanies > 0 && len(companies) >= p.MaxCompanies {
				break
			}
			c.progress(fmt.Sprintf("Getting details: %s", cand.TaxCode), len(companies), p.MaxCompanies)

			detail, err := c.gateway.FetchDetail(ctx, cand.TaxCode)
			if err != nil {
				log.Warn("detail fetch failed", zap.String("tax_code", cand.TaxCode), zap.Error(err))
				stats.Errors++
				continue
			}
			if detail == nil {
				log.Warn("detail missing for candidate", zap.String("tax_code", cand.TaxCode))
				stats.Errors++
				continue
			}

			companies = append(companies, detail)
			stats.APISuccess++
			c.sleep(ctx, p.DetailDelay)
		}

		if p.MaxCompanies > 0 && len(companies) >= p.MaxCompanies {
			break
		}
		if !res.HasNext {
			break
		}
	}

	return companies
}

// enrichSecondary looks every collected record up on hsctvn.com. The
// inter-record delay is mandatory regardless of outcome; the site bans
// fast clients.
func (c *Collector) enrichSecondary(ctx context.Context, p Params, companies []*model.Company, stats *model.RunStats, log *zap.Logger) {
	for i, company := range companies {
		if c.stopped(ctx) {
			break
		}
		c.progress(fmt.Sprintf("HSCTVN integration: %s", company.TaxCode), i+1, len(companies))

		ext, err := c.extractor.Extract(ctx, company.TaxCode)
		switch {
		case err != nil:
			log.Warn("hsctvn extraction failed", zap.String("tax_code", company.TaxCode), zap.Error(err))
			stats.Errors++
		case ext == nil:
			// no result on the site; costs nothing
		case !ext.Meaningful():
			log.Debug("hsctvn extraction too sparse to merge", zap.String("tax_code", company.TaxCode))
		default:
			company.Integrate(ext)
			stats.HSCTVNSuccess++
			if company.Source == model.SourceDual {
				stats.DualSourceSuccess++
			}
		}

		c.sleep(ctx, p.SecondaryDelay)
	}
}

// persistAll upserts every record by tax code.
func (c *Collector) persistAll(ctx context.Context, companies []*model.Company, stats *model.RunStats, log *zap.Logger) {
	for i, company := range companies {
		if c.stopped(ctx) {
			break
		}
		c.progress(fmt.Sprintf("Saving: %s", company.TaxCode), i+1, len(companies))

		exists, err := c.store.Exists(ctx, company.TaxCode)
		if err != nil {
			log.Warn("existence check failed", zap.String("tax_code", company.TaxCode), zap.Error(err))
			stats.Errors++
			continue
		}

		if exists {
			if err := c.store.Update(ctx, company); err != nil {
				log.Warn("update failed", zap.String("tax_code", company.TaxCode), zap.Error(err))
				stats.Errors++
				continue
			}
			stats.UpdatedRecords++
		} else {
			if err := c.store.Insert(ctx, company); err != nil {
				log.Warn("insert failed", zap.String("tax_code", company.TaxCode), zap.Error(err))
				stats.Errors++
				continue
			}
			stats.NewRecords++
		}
	}
}

func (c *Collector) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// audit writes a run event to the store's log table. Failures are logged
// but never fail the run.
func (c *Collector) audit(ctx context.Context, log *zap.Logger, message string) {
	if err := c.store.LogMessage(ctx, "INFO", message); err != nil {
		log.Warn("audit log write failed", zap.Error(err))
	}
}
