package collector

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vnreg-cli/internal/model"
	"github.com/sells-group/vnreg-cli/internal/registry"
	"github.com/sells-group/vnreg-cli/internal/store"
)

// RunRequest is the user-facing form of a run: region and industry are
// given by name and resolved against the reference data before anything
// starts.
type RunRequest struct {
	RegionName   string `json:"region,omitempty"`
	IndustryName string `json:"industry,omitempty"`
	Keyword      string `json:"keyword,omitempty"`

	MaxCompanies int `json:"max_companies,omitempty"`
	PageSize     int `json:"page_size,omitempty"`

	EnableSecondary bool          `json:"enable_secondary"`
	SecondaryDelay  time.Duration `json:"-"`
	DetailDelay     time.Duration `json:"-"`
}

// Progress is the last reported step of the active run.
type Progress struct {
	Message string `json:"message"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// Snapshot is the externally visible runner state.
type Snapshot struct {
	Running   bool            `json:"running"`
	RunID     string          `json:"run_id,omitempty"`
	Progress  Progress        `json:"progress"`
	LastStats *model.RunStats `json:"last_stats,omitempty"`
	LastError string          `json:"last_error,omitempty"`
}

// DoneFunc receives the outcome of an async run.
type DoneFunc func(stats *model.RunStats, err error)

// Runner is the async boundary around Collector for host UIs: one run at a
// time, cooperative stop, observable progress.
type Runner struct {
	gateway   registry.Client
	extractor Extractor
	store     store.Store

	mu        sync.Mutex
	running   bool
	runID     string
	progress  Progress
	collector *Collector
	lastStats *model.RunStats
	lastErr   error
}

// NewRunner creates a Runner over the given collaborators.
func NewRunner(gateway registry.Client, extractor Extractor, st store.Store) *Runner {
	return &Runner{gateway: gateway, extractor: extractor, store: st}
}

// Start validates the request and launches the run in the background.
// It rejects concurrent runs and unknown region/industry names before any
// collection work happens. ctx only covers validation; the run itself
// outlives the caller and is controlled via Stop.
func (r *Runner) Start(ctx context.Context, req RunRequest, onDone DoneFunc) (string, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return "", eris.New("collector: a run is already in progress")
	}
	r.running = true
	r.mu.Unlock()

	params, err := r.resolve(ctx, req)
	if err != nil {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		return "", err
	}

	col := New(r.gateway, r.extractor, r.store, r.recordProgress)
	runID := uuid.NewString()

	r.mu.Lock()
	r.collector = col
	r.runID = runID
	r.progress = Progress{}
	r.mu.Unlock()

	go r.execute(col, params, runID, onDone)
	return runID, nil
}

func (r *Runner) execute(col *Collector, params Params, runID string, onDone DoneFunc) {
	var stats *model.RunStats
	var err error

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = eris.Errorf("collector: run panicked: %v", rec)
				zap.L().Error("collection run panicked",
					zap.String("run_id", runID), zap.Any("panic", rec))
			}
		}()
		stats, err = col.Run(context.Background(), params)
	}()

	r.mu.Lock()
	r.running = false
	r.lastStats = stats
	r.lastErr = err
	r.mu.Unlock()

	if onDone != nil {
		onDone(stats, err)
	}
}

// resolve maps region/industry names to slugs, rejecting unknown names.
func (r *Runner) resolve(ctx context.Context, req RunRequest) (Params, error) {
	params := Params{
		Keyword:         req.Keyword,
		MaxCompanies:    req.MaxCompanies,
		PageSize:        req.PageSize,
		EnableSecondary: req.EnableSecondary,
		SecondaryDelay:  req.SecondaryDelay,
		DetailDelay:     req.DetailDelay,
	}

	if req.RegionName == "" && req.IndustryName == "" {
		return params, nil
	}

	ref, err := registry.LoadRefData(ctx, r.gateway)
	if err != nil {
		return Params{}, err
	}

	if req.RegionName != "" {
		region, ok := registry.FindRegionByName(ref.Regions, req.RegionName)
		if !ok {
			return Params{}, eris.Errorf("collector: unknown region %q", req.RegionName)
		}
		params.RegionSlug = region.Slug
	}
	if req.IndustryName != "" {
		industry, ok := registry.FindIndustryByName(ref.Industries, req.IndustryName)
		if !ok {
			return Params{}, eris.Errorf("collector: unknown industry %q", req.IndustryName)
		}
		params.IndustrySlug = industry.Slug
	}

	return params, nil
}

// Stop asks the active run to wind down. Reports whether a run was active.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running || r.collector == nil {
		return false
	}
	r.collector.RequestStop()
	return true
}

// Snapshot returns the current runner state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Running:   r.running,
		RunID:     r.runID,
		Progress:  r.progress,
		LastStats: r.lastStats,
	}
	if r.lastErr != nil {
		snap.LastError = r.lastErr.Error()
	}
	return snap
}

func (r *Runner) recordProgress(message string, current, total int) {
	r.mu.Lock()
	r.progress = Progress{Message: message, Current: current, Total: total}
	r.mu.Unlock()
}
