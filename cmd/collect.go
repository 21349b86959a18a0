package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vnreg-cli/internal/collector"
	"github.com/sells-group/vnreg-cli/internal/registry"
)

var (
	collectRegion         string
	collectIndustry       string
	collectKeyword        string
	collectMax            int
	collectPageSize       int
	collectSecondary      bool
	collectSecondaryDelay time.Duration
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a collection: registry search, detail fetch, optional hsctvn.com enrichment, save",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("collect"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		gateway := initGateway()

		params := collector.Params{
			Keyword:         collectKeyword,
			MaxCompanies:    collectMax,
			PageSize:        collectPageSize,
			EnableSecondary: collectSecondary,
			SecondaryDelay:  collectSecondaryDelay,
			DetailDelay:     time.Duration(cfg.Collect.DetailDelaySecs * float64(time.Second)),
		}
		if params.PageSize == 0 {
			params.PageSize = cfg.Collect.PageSize
		}
		if !cmd.Flags().Changed("secondary-delay") {
			params.SecondaryDelay = time.Duration(cfg.Collect.SecondaryDelaySecs * float64(time.Second))
		}

		// Resolve names before any collection work happens.
		if collectRegion != "" || collectIndustry != "" {
			ref, err := registry.LoadRefData(ctx, gateway)
			if err != nil {
				return eris.Wrap(err, "load reference data")
			}
			if collectRegion != "" {
				region, ok := registry.FindRegionByName(ref.Regions, collectRegion)
				if !ok {
					return eris.Errorf("unknown region %q", collectRegion)
				}
				params.RegionSlug = region.Slug
				fmt.Fprintf(os.Stderr, "Region: %s\n", region.Name)
			}
			if collectIndustry != "" {
				industry, ok := registry.FindIndustryByName(ref.Industries, collectIndustry)
				if !ok {
					return eris.Errorf("unknown industry %q", collectIndustry)
				}
				params.IndustrySlug = industry.Slug
				fmt.Fprintf(os.Stderr, "Industry: %s\n", industry.Name)
			}
		}

		var ext collector.Extractor
		if collectSecondary {
			extractor, browser := initExtractor()
			defer browser.Close()
			ext = extractor
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		progress := func(message string, current, total int) {
			if total > 0 {
				fmt.Fprintf(os.Stderr, "%s [%d/%d]\n", cyan(message), current, total)
			} else {
				fmt.Fprintf(os.Stderr, "%s\n", cyan(message))
			}
		}

		col := collector.New(gateway, ext, st, progress)
		go func() {
			<-ctx.Done()
			col.RequestStop()
		}()

		stats, err := col.Run(ctx, params)
		if err != nil {
			zap.L().Warn("collection interrupted", zap.Error(err))
		}

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %d processed, %d new, %d updated",
			green("Done:"), stats.TotalProcessed, stats.NewRecords, stats.UpdatedRecords)
		if stats.Errors > 0 {
			fmt.Fprintf(os.Stderr, ", %s", red(fmt.Sprintf("%d errors", stats.Errors)))
		}
		fmt.Fprintln(os.Stderr)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectRegion, "region", "", "region name (e.g. \"Hà Nội\", \"hcm\")")
	collectCmd.Flags().StringVar(&collectIndustry, "industry", "", "industry name")
	collectCmd.Flags().StringVar(&collectKeyword, "keyword", "", "free-text search keyword")
	collectCmd.Flags().IntVar(&collectMax, "max", 0, "max companies to collect (0 = all)")
	collectCmd.Flags().IntVar(&collectPageSize, "page-size", 0, "search page size (default from config)")
	collectCmd.Flags().BoolVar(&collectSecondary, "secondary", true, "enrich each record from hsctvn.com")
	collectCmd.Flags().DurationVar(&collectSecondaryDelay, "secondary-delay", 2*time.Second, "delay between hsctvn.com lookups")
	rootCmd.AddCommand(collectCmd)
}
