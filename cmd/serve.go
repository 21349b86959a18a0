package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vnreg-cli/internal/collector"
	"github.com/sells-group/vnreg-cli/internal/export"
	"github.com/sells-group/vnreg-cli/internal/model"
	"github.com/sells-group/vnreg-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for collection runs and queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		extractor, browser := initExtractor()
		defer browser.Close()

		runner := collector.NewRunner(initGateway(), extractor, st)
		api := &apiServer{
			runner:    runner,
			store:     st,
			exportDir: cfg.Export.OutputDir,
			secondaryDelay: time.Duration(
				cfg.Collect.SecondaryDelaySecs * float64(time.Second)),
			detailDelay: time.Duration(
				cfg.Collect.DetailDelaySecs * float64(time.Second)),
			defaultPageSize: cfg.Collect.PageSize,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			runner.Stop()
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// apiServer bundles the handler dependencies.
type apiServer struct {
	runner          *collector.Runner
	store           store.Store
	exportDir       string
	secondaryDelay  time.Duration
	detailDelay     time.Duration
	defaultPageSize int
}

func (a *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", a.handleHealth)
	r.Post("/runs", a.handleStartRun)
	r.Post("/runs/stop", a.handleStopRun)
	r.Get("/runs/current", a.handleCurrentRun)
	r.Get("/companies", a.handleCompanies)
	r.Post("/export", a.handleExport)

	return r
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *apiServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Region          string `json:"region"`
		Industry        string `json:"industry"`
		Keyword         string `json:"keyword"`
		MaxCompanies    int    `json:"max_companies"`
		PageSize        int    `json:"page_size"`
		EnableSecondary *bool  `json:"enable_secondary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := collector.RunRequest{
		RegionName:      body.Region,
		IndustryName:    body.Industry,
		Keyword:         body.Keyword,
		MaxCompanies:    body.MaxCompanies,
		PageSize:        body.PageSize,
		EnableSecondary: true,
		SecondaryDelay:  a.secondaryDelay,
		DetailDelay:     a.detailDelay,
	}
	if body.EnableSecondary != nil {
		req.EnableSecondary = *body.EnableSecondary
	}
	if req.PageSize == 0 {
		req.PageSize = a.defaultPageSize
	}

	runID, err := a.runner.Start(r.Context(), req, func(stats *model.RunStats, err error) {
		if err != nil {
			zap.L().Error("collection run failed", zap.Error(err))
			return
		}
		zap.L().Info("collection run finished",
			zap.Int("total_processed", stats.TotalProcessed),
			zap.Int("errors", stats.Errors),
		)
	})
	if err != nil {
		if strings.Contains(err.Error(), "already in progress") {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (a *apiServer) handleStopRun(w http.ResponseWriter, r *http.Request) {
	stopped := a.runner.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

func (a *apiServer) handleCurrentRun(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.runner.Snapshot())
}

func (a *apiServer) handleCompanies(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Status:       r.URL.Query().Get("status"),
		BusinessLine: r.URL.Query().Get("business_line"),
		Province:     r.URL.Query().Get("province"),
		Source:       r.URL.Query().Get("source"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	companies, err := a.store.Query(r.Context(), filter)
	if err != nil {
		zap.L().Error("company query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}

	writeJSON(w, http.StatusOK, companies)
}

func (a *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	var filter store.Filter
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if filter.Limit == 0 {
		filter.Limit = 100000
	}

	companies, err := a.store.Query(r.Context(), filter)
	if err != nil {
		zap.L().Error("company query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	if err := os.MkdirAll(a.exportDir, 0o755); err != nil {
		zap.L().Error("export dir create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	path := export.DefaultFilename(a.exportDir)
	if err := export.WriteXLSX(path, companies); err != nil {
		zap.L().Error("export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"path": path,
		"rows": len(companies),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
