// Package store persists collected company records keyed by tax code,
// with sqlite and postgres backends.
package store

import (
	"context"
	"time"

	"github.com/sells-group/vnreg-cli/internal/model"
)

// Filter narrows a company query. Status and Source match exactly;
// BusinessLine and Province match as substrings.
type Filter struct {
	Status       string `json:"status,omitempty"`
	BusinessLine string `json:"business_line,omitempty"`
	Province     string `json:"province,omitempty"`
	Source       string `json:"source,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// ProvinceCount is one row of the per-province breakdown.
type ProvinceCount struct {
	Province string `json:"province"`
	Count    int    `json:"count"`
}

// DBStats summarizes the stored dataset.
type DBStats struct {
	TotalCompanies int             `json:"total_companies"`
	BySource       map[string]int  `json:"by_source"`
	ByStatus       map[string]int  `json:"by_status"`
	TopProvinces   []ProvinceCount `json:"top_provinces"`
}

// Store is the persistence interface for collected records.
type Store interface {
	// Companies
	Exists(ctx context.Context, taxCode string) (bool, error)
	Insert(ctx context.Context, c *model.Company) error
	Update(ctx context.Context, c *model.Company) error
	Get(ctx context.Context, taxCode string) (*model.Company, error)
	Query(ctx context.Context, f Filter) ([]model.Company, error)

	// Audit log
	LogMessage(ctx context.Context, level, message string) error
	PruneLogs(ctx context.Context, maxAge time.Duration) (int64, error)

	// Aggregates
	Stats(ctx context.Context) (*DBStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Upsert saves a record under its tax code. Reports whether a new row was
// created.
func Upsert(ctx context.Context, s Store, c *model.Company) (bool, error) {
	exists, err := s.Exists(ctx, c.TaxCode)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.Update(ctx, c)
	}
	return true, s.Insert(ctx, c)
}
